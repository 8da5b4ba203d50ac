package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klarity-app/klarity/internal/contracts"
	_ "github.com/klarity-app/klarity/testing"
)

type stubRenewalSource struct {
	notices []contracts.RenewalNotice
	err     error
	from    time.Time
	until   time.Time
}

func (s *stubRenewalSource) RenewalsDue(ctx context.Context, from, until time.Time) ([]contracts.RenewalNotice, error) {
	s.from, s.until = from, until
	return s.notices, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRenewalScanWindow(t *testing.T) {
	source := &stubRenewalSource{}
	job := NewRenewalScanJob(source, nil, discardLogger())

	t.Run("explicit window", func(t *testing.T) {
		task, err := NewRenewalScanTask(14)
		require.NoError(t, err)
		require.NoError(t, job.Handle(context.Background(), task))
		assert.WithinDuration(t, source.from.AddDate(0, 0, 14), source.until, time.Second)
	})

	t.Run("zero window falls back to default", func(t *testing.T) {
		task, err := NewRenewalScanTask(0)
		require.NoError(t, err)
		require.NoError(t, job.Handle(context.Background(), task))
		assert.WithinDuration(t, source.from.AddDate(0, 0, defaultRenewalWindowDays), source.until, time.Second)
	})
}

func TestRenewalScanSkipsRetryOnBadPayload(t *testing.T) {
	job := NewRenewalScanJob(&stubRenewalSource{}, nil, discardLogger())

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeRenewalScan, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRenewalScanPropagatesSourceError(t *testing.T) {
	source := &stubRenewalSource{err: errors.New("db down")}
	job := NewRenewalScanJob(source, nil, discardLogger())

	task, err := NewRenewalScanTask(30)
	require.NoError(t, err)
	assert.Error(t, job.Handle(context.Background(), task))
}

func TestRenderBody(t *testing.T) {
	job := NewRenewalScanJob(&stubRenewalSource{}, nil, discardLogger())
	amount := 13.49
	notice := contracts.RenewalNotice{
		ContractID:    "c1",
		ContractName:  "Netflix",
		Provider:      "Netflix",
		RenewalDate:   time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		MonthlyAmount: &amount,
		OwnerEmail:    "test@klarity.dev",
		OwnerName:     "Test",
	}

	body := job.renderBody(notice)
	assert.Contains(t, body, "Hello Test")
	assert.Contains(t, body, `"Netflix"`)
	assert.Contains(t, body, "renews on 2026-09-15")
	// French locale formatting for the amount.
	assert.Contains(t, body, "13,49")

	notice.MonthlyAmount = nil
	notice.Provider = ""
	body = job.renderBody(notice)
	assert.NotContains(t, body, "Current cost")
	assert.NotContains(t, body, " with ")
}
