// Package contracts owns the Contract entity: a user-owned record of a
// recurring financial or service commitment.
package contracts

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/klarity-app/klarity/internal/shared"
)

// Contract statuses form a closed, case-normalized vocabulary.
const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusExpired  = "expired"
	StatusArchived = "archived"
)

// Known categories. The column stays free-form but the UI treats the
// vocabulary as closed.
const (
	CategoryHousing      = "housing"
	CategoryAuto         = "auto"
	CategoryHealth       = "health"
	CategoryEnergy       = "energy"
	CategoryTelecom      = "telecom"
	CategoryBanking      = "banking"
	CategorySubscription = "subscription"
	CategoryOther        = "other"
)

// Contract is the sole business entity. Every contract has exactly one
// owning user; the owner id is immutable after creation.
type Contract struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Name           string     `json:"name"`
	Provider       string     `json:"provider"`
	ContractNumber string     `json:"contractNumber,omitempty"`
	Category       string     `json:"category"`
	Status         string     `json:"status"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	RenewalDate    *time.Time `json:"renewalDate,omitempty"`
	MonthlyAmount  *float64   `json:"monthlyAmount,omitempty"`
	AnnualAmount   *float64   `json:"annualAmount,omitempty"`
	ContactPhone   string     `json:"contactPhone,omitempty"`
	Website        string     `json:"website,omitempty"`
	AdvisorName    string     `json:"advisorName,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NormalizeStatus folds any casing into the closed vocabulary. The
// legacy "draft" marker maps to pending.
func NormalizeStatus(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StatusActive:
		return StatusActive, nil
	case StatusPending, "draft":
		return StatusPending, nil
	case StatusExpired:
		return StatusExpired, nil
	case StatusArchived:
		return StatusArchived, nil
	case "":
		return "", fmt.Errorf("%w: status is empty", shared.ErrValidation)
	default:
		return "", fmt.Errorf("%w: unknown status %q", shared.ErrValidation, raw)
	}
}

// NormalizeCategory lowercases the category, defaulting to "other".
func NormalizeCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return CategoryOther
	}
	return c
}

// Money is a monetary amount parsed from an external representation:
// either a JSON number or a numeric string. Anything else is rejected.
type Money float64

// UnmarshalJSON implements the lenient-input strict-failure parse.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(data, `"`))
	if raw == "null" || raw == "" {
		return fmt.Errorf("%w: amount is empty", shared.ErrValidation)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", shared.ErrValidation, raw)
	}
	*m = Money(value)
	return nil
}

// MarshalJSON renders the amount as a plain number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(m), 'f', -1, 64)), nil
}

// Date is a calendar date parsed from "2006-01-02" or RFC3339 input.
type Date time.Time

// UnmarshalJSON accepts both date-only and full timestamp forms.
func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		return fmt.Errorf("%w: date is empty", shared.ErrValidation)
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		*d = Date(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("%w: %q is not a date", shared.ErrValidation, raw)
	}
	*d = Date(t)
	return nil
}

// MarshalJSON renders the date-only form.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Time(d).Format("2006-01-02"))), nil
}

// Time converts to the underlying time value.
func (d Date) Time() time.Time {
	return time.Time(d)
}
