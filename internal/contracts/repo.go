package contracts

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klarity-app/klarity/internal/shared"
)

// ListFilter narrows and pages a contract listing.
type ListFilter struct {
	Status string
	Page   int
	Limit  int
}

// Stats are the dashboard rollups. Sums intentionally include archived
// contracts; the active count is reported alongside the total.
type Stats struct {
	Count       int     `json:"count"`
	ActiveCount int     `json:"activeCount"`
	SumMonthly  float64 `json:"sumMonthly"`
	SumAnnual   float64 `json:"sumAnnual"`
}

// RenewalNotice pairs a contract nearing renewal with its owner.
type RenewalNotice struct {
	ContractID    string
	ContractName  string
	Provider      string
	RenewalDate   time.Time
	MonthlyAmount *float64
	OwnerEmail    string
	OwnerName     string
}

// Repository defines owner-scoped persistence for contracts. Ownership
// is part of every lookup, so a foreign id behaves exactly like a
// missing one.
type Repository interface {
	Create(ctx context.Context, c *Contract) error
	Get(ctx context.Context, ownerID, id string) (*Contract, error)
	List(ctx context.Context, ownerID string, filter ListFilter) ([]Contract, int, error)
	Update(ctx context.Context, c *Contract) (*Contract, error)
	SetArchived(ctx context.Context, ownerID, id string, archived bool) (*Contract, error)
	Delete(ctx context.Context, ownerID, id string) error
	Aggregate(ctx context.Context, ownerID string) (Stats, error)
	CountByCategory(ctx context.Context, ownerID string) (map[string]int, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]Contract, error)
	ListUpcomingRenewals(ctx context.Context, ownerID string, until time.Time, limit int) ([]Contract, error)
	RenewalsDue(ctx context.Context, from, until time.Time) ([]RenewalNotice, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool}
}

const contractColumns = `id, user_id, name, provider, contract_number, category, status,
	start_date, end_date, renewal_date, monthly_amount, annual_amount,
	contact_phone, website, advisor_name, notes, created_at, updated_at`

func scanContract(row pgx.Row) (*Contract, error) {
	var c Contract
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Provider, &c.ContractNumber, &c.Category, &c.Status,
		&c.StartDate, &c.EndDate, &c.RenewalDate, &c.MonthlyAmount, &c.AnnualAmount,
		&c.ContactPhone, &c.Website, &c.AdvisorName, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanContracts(rows pgx.Rows) ([]Contract, error) {
	defer rows.Close()
	var items []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Create inserts a contract; id and timestamps are server-assigned by
// the service layer.
func (r *PGRepository) Create(ctx context.Context, c *Contract) error {
	query := `INSERT INTO contracts (` + contractColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.UserID, c.Name, c.Provider, c.ContractNumber, c.Category, c.Status,
		c.StartDate, c.EndDate, c.RenewalDate, c.MonthlyAmount, c.AnnualAmount,
		c.ContactPhone, c.Website, c.AdvisorName, c.Notes, c.CreatedAt, c.UpdatedAt)
	return err
}

// Get fetches a contract by id within the owner's scope.
func (r *PGRepository) Get(ctx context.Context, ownerID, id string) (*Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1 AND user_id = $2`
	return scanContract(r.db.QueryRow(ctx, query, id, ownerID))
}

// List returns a page of the owner's contracts, newest first, plus the
// total matching count.
func (r *PGRepository) List(ctx context.Context, ownerID string, filter ListFilter) ([]Contract, int, error) {
	where := `WHERE user_id = $1`
	args := []any{ownerID}
	if filter.Status != "" {
		where += ` AND status = $2`
		args = append(args, filter.Status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contracts `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.Limit, total)
	query := `SELECT ` + contractColumns + ` FROM contracts ` + where +
		` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanContracts(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update writes the full row back within the owner's scope and
// refreshes updated_at.
func (r *PGRepository) Update(ctx context.Context, c *Contract) (*Contract, error) {
	query := `UPDATE contracts SET
	            name = $1, provider = $2, contract_number = $3, category = $4, status = $5,
	            start_date = $6, end_date = $7, renewal_date = $8,
	            monthly_amount = $9, annual_amount = $10,
	            contact_phone = $11, website = $12, advisor_name = $13, notes = $14,
	            updated_at = $15
	          WHERE id = $16 AND user_id = $17
	          RETURNING ` + contractColumns
	return scanContract(r.db.QueryRow(ctx, query,
		c.Name, c.Provider, c.ContractNumber, c.Category, c.Status,
		c.StartDate, c.EndDate, c.RenewalDate, c.MonthlyAmount, c.AnnualAmount,
		c.ContactPhone, c.Website, c.AdvisorName, c.Notes,
		time.Now().UTC(), c.ID, c.UserID))
}

// SetArchived flips the archive marker within the owner's scope.
func (r *PGRepository) SetArchived(ctx context.Context, ownerID, id string, archived bool) (*Contract, error) {
	status := StatusActive
	if archived {
		status = StatusArchived
	}
	query := `UPDATE contracts SET status = $1, updated_at = $2
	          WHERE id = $3 AND user_id = $4
	          RETURNING ` + contractColumns
	return scanContract(r.db.QueryRow(ctx, query, status, time.Now().UTC(), id, ownerID))
}

// Delete removes the row permanently within the owner's scope.
func (r *PGRepository) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contracts WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Aggregate computes the owner's rollups in one pass.
func (r *PGRepository) Aggregate(ctx context.Context, ownerID string) (Stats, error) {
	query := `SELECT COUNT(*),
	                 COUNT(*) FILTER (WHERE status = 'active'),
	                 COALESCE(SUM(monthly_amount), 0),
	                 COALESCE(SUM(annual_amount), 0)
	          FROM contracts WHERE user_id = $1`
	var s Stats
	err := r.db.QueryRow(ctx, query, ownerID).Scan(&s.Count, &s.ActiveCount, &s.SumMonthly, &s.SumAnnual)
	return s, err
}

// CountByCategory groups the owner's contracts by category.
func (r *PGRepository) CountByCategory(ctx context.Context, ownerID string) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT category, COUNT(*) FROM contracts WHERE user_id = $1 GROUP BY category`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

// ListRecent returns the owner's newest contracts.
func (r *PGRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, err
	}
	return scanContracts(rows)
}

// ListUpcomingRenewals returns the owner's contracts renewing before
// the given date, soonest first.
func (r *PGRepository) ListUpcomingRenewals(ctx context.Context, ownerID string, until time.Time, limit int) ([]Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts
	          WHERE user_id = $1 AND renewal_date IS NOT NULL AND renewal_date <= $2 AND status <> 'archived'
	          ORDER BY renewal_date ASC LIMIT $3`
	rows, err := r.db.Query(ctx, query, ownerID, until, limit)
	if err != nil {
		return nil, err
	}
	return scanContracts(rows)
}

// RenewalsDue lists contracts across all owners whose renewal date
// falls inside the window, joined with owner contact details. Used by
// the reminder scan, never by request handlers.
func (r *PGRepository) RenewalsDue(ctx context.Context, from, until time.Time) ([]RenewalNotice, error) {
	query := `SELECT c.id, c.name, c.provider, c.renewal_date, c.monthly_amount, u.email, u.name
	          FROM contracts c JOIN users u ON u.id = c.user_id
	          WHERE c.renewal_date IS NOT NULL AND c.renewal_date >= $1 AND c.renewal_date <= $2
	            AND c.status <> 'archived'
	          ORDER BY c.renewal_date ASC`
	rows, err := r.db.Query(ctx, query, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notices []RenewalNotice
	for rows.Next() {
		var n RenewalNotice
		if err := rows.Scan(&n.ContractID, &n.ContractName, &n.Provider, &n.RenewalDate, &n.MonthlyAmount, &n.OwnerEmail, &n.OwnerName); err != nil {
			return nil, err
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

var _ Repository = (*PGRepository)(nil)
