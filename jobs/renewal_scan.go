package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/klarity-app/klarity/internal/contracts"
)

const defaultRenewalWindowDays = 30

// RenewalSource is the slice of the contract repository the scan needs.
type RenewalSource interface {
	RenewalsDue(ctx context.Context, from, until time.Time) ([]contracts.RenewalNotice, error)
}

// RenewalScanJob finds contracts whose renewal date falls inside the
// reminder window and queues one email per contract.
type RenewalScanJob struct {
	repo    RenewalSource
	client  *Client
	logger  *slog.Logger
	printer *message.Printer
}

// NewRenewalScanJob constructs the scan job.
func NewRenewalScanJob(repo RenewalSource, client *Client, logger *slog.Logger) *RenewalScanJob {
	return &RenewalScanJob{
		repo:    repo,
		client:  client,
		logger:  logger,
		printer: message.NewPrinter(language.French),
	}
}

// Handle processes TaskTypeRenewalScan tasks.
func (j *RenewalScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload RenewalScanPayload
	if err := unmarshalPayload(t, &payload); err != nil {
		return asynq.SkipRetry
	}
	window := payload.WindowDays
	if window <= 0 {
		window = defaultRenewalWindowDays
	}

	now := time.Now().UTC()
	notices, err := j.repo.RenewalsDue(ctx, now, now.AddDate(0, 0, window))
	if err != nil {
		return fmt.Errorf("jobs: renewal scan: %w", err)
	}

	for _, notice := range notices {
		mail, err := NewSendEmailTask(SendEmailPayload{
			To:      notice.OwnerEmail,
			Subject: fmt.Sprintf("Renewal coming up: %s", notice.ContractName),
			Body:    j.renderBody(notice),
		})
		if err != nil {
			return err
		}
		if err := j.client.Enqueue(ctx, mail); err != nil {
			j.logger.Warn("enqueue reminder",
				slog.String("contract", notice.ContractID),
				slog.Any("error", err))
		}
	}

	j.logger.Info("renewal scan complete",
		slog.Int("window_days", window),
		slog.Int("reminders", len(notices)))
	return nil
}

func (j *RenewalScanJob) renderBody(n contracts.RenewalNotice) string {
	body := fmt.Sprintf("Hello %s,\n\nYour contract %q", n.OwnerName, n.ContractName)
	if n.Provider != "" {
		body += fmt.Sprintf(" with %s", n.Provider)
	}
	body += fmt.Sprintf(" renews on %s.", n.RenewalDate.Format("2006-01-02"))
	if n.MonthlyAmount != nil {
		body += j.printer.Sprintf(" Current cost: %.2f €/month.", *n.MonthlyAmount)
	}
	body += "\n\nNow is a good moment to review or renegotiate it.\n\n— Klarity"
	return body
}
