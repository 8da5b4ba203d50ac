// Package jobs holds the background task definitions and the asynq
// worker plumbing. Nothing here runs inside the request path.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeRenewalScan is the task type for the renewal reminder scan.
	TaskTypeRenewalScan = "contracts:renewal_scan"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an asynq task for one email.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// RenewalScanPayload configures the reminder window.
type RenewalScanPayload struct {
	WindowDays int `json:"window_days"`
}

// NewRenewalScanTask constructs the scheduled scan task.
func NewRenewalScanTask(windowDays int) (*asynq.Task, error) {
	data, err := json.Marshal(RenewalScanPayload{WindowDays: windowDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRenewalScan, data), nil
}
