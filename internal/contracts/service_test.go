package contracts

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klarity-app/klarity/internal/shared"
	_ "github.com/klarity-app/klarity/testing"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	rows  map[string]*Contract
	bumps int
}

func newMockRepository() *mockRepository {
	return &mockRepository{rows: make(map[string]*Contract)}
}

func (m *mockRepository) Bump(ctx context.Context, ownerID string) {
	m.bumps++
}

func (m *mockRepository) Create(ctx context.Context, c *Contract) error {
	clone := *c
	m.rows[c.ID] = &clone
	return nil
}

func (m *mockRepository) Get(ctx context.Context, ownerID, id string) (*Contract, error) {
	c, ok := m.rows[id]
	if !ok || c.UserID != ownerID {
		return nil, shared.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *mockRepository) owned(ownerID string) []Contract {
	var items []Contract
	for _, c := range m.rows {
		if c.UserID == ownerID {
			items = append(items, *c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items
}

func (m *mockRepository) List(ctx context.Context, ownerID string, filter ListFilter) ([]Contract, int, error) {
	var matched []Contract
	for _, c := range m.owned(ownerID) {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		matched = append(matched, c)
	}
	total := len(matched)
	page := shared.NewPagination(filter.Page, filter.Limit, total)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *mockRepository) Update(ctx context.Context, c *Contract) (*Contract, error) {
	existing, ok := m.rows[c.ID]
	if !ok || existing.UserID != c.UserID {
		return nil, shared.ErrNotFound
	}
	clone := *c
	clone.UpdatedAt = time.Now().UTC()
	m.rows[c.ID] = &clone
	result := clone
	return &result, nil
}

func (m *mockRepository) SetArchived(ctx context.Context, ownerID, id string, archived bool) (*Contract, error) {
	c, ok := m.rows[id]
	if !ok || c.UserID != ownerID {
		return nil, shared.ErrNotFound
	}
	if archived {
		c.Status = StatusArchived
	} else {
		c.Status = StatusActive
	}
	c.UpdatedAt = time.Now().UTC()
	clone := *c
	return &clone, nil
}

func (m *mockRepository) Delete(ctx context.Context, ownerID, id string) error {
	c, ok := m.rows[id]
	if !ok || c.UserID != ownerID {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *mockRepository) Aggregate(ctx context.Context, ownerID string) (Stats, error) {
	var s Stats
	for _, c := range m.owned(ownerID) {
		s.Count++
		if c.Status == StatusActive {
			s.ActiveCount++
		}
		if c.MonthlyAmount != nil {
			s.SumMonthly += *c.MonthlyAmount
		}
		if c.AnnualAmount != nil {
			s.SumAnnual += *c.AnnualAmount
		}
	}
	return s, nil
}

func (m *mockRepository) CountByCategory(ctx context.Context, ownerID string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, c := range m.owned(ownerID) {
		counts[c.Category]++
	}
	return counts, nil
}

func (m *mockRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]Contract, error) {
	items := m.owned(ownerID)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *mockRepository) ListUpcomingRenewals(ctx context.Context, ownerID string, until time.Time, limit int) ([]Contract, error) {
	var items []Contract
	for _, c := range m.owned(ownerID) {
		if c.RenewalDate != nil && c.RenewalDate.Before(until) && c.Status != StatusArchived {
			items = append(items, c)
		}
	}
	return items, nil
}

func (m *mockRepository) RenewalsDue(ctx context.Context, from, until time.Time) ([]RenewalNotice, error) {
	return nil, nil
}

var _ Repository = (*mockRepository)(nil)

func strptr(s string) *string { return &s }

func moneyptr(v float64) *Money {
	m := Money(v)
	return &m
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateRequiresName(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, repo)

	_, err := service.Create(context.Background(), "u1", Input{})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, repo.rows)
	assert.Zero(t, repo.bumps)
}

func TestCreateDefaultsAndRoundTrip(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, repo)
	ctx := context.Background()

	created, err := service.Create(ctx, "u1", Input{
		Name:          strptr("Netflix"),
		Provider:      strptr("Netflix"),
		Category:      strptr("Subscription"),
		MonthlyAmount: moneyptr(13.49),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, CategorySubscription, created.Category)
	assert.Equal(t, 1, repo.bumps)

	got, err := service.Get(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Provider, got.Provider)
	require.NotNil(t, got.MonthlyAmount)
	assert.InDelta(t, 13.49, *got.MonthlyAmount, 1e-9)
}

func TestCreateRejectsNegativeAmount(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, repo)

	_, err := service.Create(context.Background(), "u1", Input{
		Name:          strptr("Bad"),
		MonthlyAmount: moneyptr(-1),
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestOwnerMismatchLooksLikeMissing(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, repo)
	ctx := context.Background()

	created, err := service.Create(ctx, "owner", Input{Name: strptr("Mine")})
	require.NoError(t, err)

	_, errWrongOwner := service.Get(ctx, "intruder", created.ID)
	_, errMissing := service.Get(ctx, "owner", "no-such-id")
	assert.ErrorIs(t, errWrongOwner, shared.ErrNotFound)
	assert.ErrorIs(t, errMissing, shared.ErrNotFound)

	_, err = service.Update(ctx, "intruder", created.ID, Input{Name: strptr("Stolen")})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = service.Delete(ctx, "intruder", created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateMergesPartialInput(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, repo)
	ctx := context.Background()

	created, err := service.Create(ctx, "u1", Input{
		Name:          strptr("Électricité"),
		Provider:      strptr("EDF"),
		MonthlyAmount: moneyptr(65),
	})
	require.NoError(t, err)

	updated, err := service.Update(ctx, "u1", created.ID, Input{MonthlyAmount: moneyptr(70.50)})
	require.NoError(t, err)
	assert.Equal(t, "Électricité", updated.Name)
	assert.Equal(t, "EDF", updated.Provider)
	require.NotNil(t, updated.MonthlyAmount)
	assert.InDelta(t, 70.50, *updated.MonthlyAmount, 1e-9)

	_, err = service.Update(ctx, "u1", created.ID, Input{Status: strptr("nonsense")})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteThenGet(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, repo)
	ctx := context.Background()

	created, err := service.Create(ctx, "u1", Input{Name: strptr("Gone")})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, "u1", created.ID))
	_, err = service.Get(ctx, "u1", created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListFiltersAndPages(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, repo)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 15; i++ {
		status := StatusActive
		if i%3 == 0 {
			status = StatusArchived
		}
		c := &Contract{
			ID: string(rune('a' + i)), UserID: "u1", Name: "C", Status: status,
			Category: CategoryOther, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, c))
	}

	items, page, err := service.List(ctx, "u1", ListFilter{Status: "ACTIVE", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)
	for _, c := range items {
		assert.Equal(t, StatusActive, c.Status)
	}

	first, _, err := service.List(ctx, "u1", ListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	second, page2, err := service.List(ctx, "u1", ListFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, first, 10)
	require.Len(t, second, 5)
	assert.Equal(t, 15, page2.Total)
	assert.Equal(t, 2, page2.Pages)
	// Newest first across the page boundary.
	assert.True(t, first[len(first)-1].CreatedAt.After(second[0].CreatedAt))
}

func TestArchiveScenario(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, repo)
	ctx := context.Background()

	created, err := service.Create(ctx, "U", Input{
		Name:          strptr("Netflix"),
		Status:        strptr("active"),
		MonthlyAmount: moneyptr(13.49),
	})
	require.NoError(t, err)

	stats, err := repo.Aggregate(ctx, "U")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.InDelta(t, 13.49, stats.SumMonthly, 1e-9)

	archived, err := service.Archive(ctx, "U", created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Status)

	items, _, err := service.List(ctx, "U", ListFilter{Status: "active"})
	require.NoError(t, err)
	assert.Empty(t, items)

	// Sums still include the archived contract.
	stats, err = repo.Aggregate(ctx, "U")
	require.NoError(t, err)
	assert.InDelta(t, 13.49, stats.SumMonthly, 1e-9)

	restored, err := service.Archive(ctx, "U", created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, restored.Status)
}
