package contracts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/klarity-app/klarity/internal/shared"
)

// Invalidator is notified after every contract mutation so read-side
// caches can drop stale rollups. Optional.
type Invalidator interface {
	Bump(ctx context.Context, ownerID string)
}

// Input carries the client-supplied contract fields. Nil means "not
// provided": create ignores it, update leaves the stored value alone.
type Input struct {
	Name           *string `json:"name"`
	Provider       *string `json:"provider"`
	ContractNumber *string `json:"contractNumber"`
	Category       *string `json:"category"`
	Status         *string `json:"status"`
	StartDate      *Date   `json:"startDate"`
	EndDate        *Date   `json:"endDate"`
	RenewalDate    *Date   `json:"renewalDate"`
	MonthlyAmount  *Money  `json:"monthlyAmount"`
	AnnualAmount   *Money  `json:"annualAmount"`
	ContactPhone   *string `json:"contactPhone"`
	Website        *string `json:"website"`
	AdvisorName    *string `json:"advisorName"`
	Notes          *string `json:"notes"`
}

// Service wraps contract business rules over the repository.
type Service struct {
	repo  Repository
	cache Invalidator
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache Invalidator) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create validates the input and inserts a new contract owned by
// ownerID. Status defaults to pending.
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (*Contract, error) {
	if in.Name == nil || *in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}

	now := time.Now().UTC()
	c := &Contract{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		Name:      *in.Name,
		Category:  CategoryOther,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyInput(c, in); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.bump(ctx, ownerID)
	return c, nil
}

// Get fetches one contract within the owner's scope.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Contract, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns a page of the owner's contracts plus pagination metadata.
func (s *Service) List(ctx context.Context, ownerID string, filter ListFilter) ([]Contract, shared.Pagination, error) {
	if filter.Status != "" {
		status, err := NormalizeStatus(filter.Status)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		filter.Status = status
	}
	items, total, err := s.repo.List(ctx, ownerID, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.Limit, total), nil
}

// Update applies a partial update within the owner's scope.
func (s *Service) Update(ctx context.Context, ownerID, id string, in Input) (*Contract, error) {
	existing, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && *in.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", shared.ErrValidation)
	}
	if in.Name != nil {
		existing.Name = *in.Name
	}
	if err := applyInput(existing, in); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.bump(ctx, ownerID)
	return updated, nil
}

// Archive flips the contract between the archived and active markers.
func (s *Service) Archive(ctx context.Context, ownerID, id string, archived bool) (*Contract, error) {
	c, err := s.repo.SetArchived(ctx, ownerID, id, archived)
	if err != nil {
		return nil, err
	}
	s.bump(ctx, ownerID)
	return c, nil
}

// Delete removes a contract permanently.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.bump(ctx, ownerID)
	return nil
}

func (s *Service) bump(ctx context.Context, ownerID string) {
	if s.cache != nil {
		s.cache.Bump(ctx, ownerID)
	}
}

// applyInput copies the provided optional fields onto the contract and
// enforces the field-level invariants. Name is handled by the callers.
func applyInput(c *Contract, in Input) error {
	if in.Provider != nil {
		c.Provider = *in.Provider
	}
	if in.ContractNumber != nil {
		c.ContractNumber = *in.ContractNumber
	}
	if in.Category != nil {
		c.Category = NormalizeCategory(*in.Category)
	}
	if in.Status != nil {
		status, err := NormalizeStatus(*in.Status)
		if err != nil {
			return err
		}
		c.Status = status
	}
	if in.StartDate != nil {
		t := in.StartDate.Time()
		c.StartDate = &t
	}
	if in.EndDate != nil {
		t := in.EndDate.Time()
		c.EndDate = &t
	}
	if in.RenewalDate != nil {
		t := in.RenewalDate.Time()
		c.RenewalDate = &t
	}
	if in.MonthlyAmount != nil {
		if *in.MonthlyAmount < 0 {
			return fmt.Errorf("%w: monthlyAmount must be non-negative", shared.ErrValidation)
		}
		v := float64(*in.MonthlyAmount)
		c.MonthlyAmount = &v
	}
	if in.AnnualAmount != nil {
		if *in.AnnualAmount < 0 {
			return fmt.Errorf("%w: annualAmount must be non-negative", shared.ErrValidation)
		}
		v := float64(*in.AnnualAmount)
		c.AnnualAmount = &v
	}
	if in.ContactPhone != nil {
		c.ContactPhone = *in.ContactPhone
	}
	if in.Website != nil {
		c.Website = *in.Website
	}
	if in.AdvisorName != nil {
		c.AdvisorName = *in.AdvisorName
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	return nil
}
