package backoffice

import (
	"context"
	"time"

	"github.com/aquamarinepk/aqm"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/flow"
)

// AuditEntry records one mutation sent to the remote API.
type AuditEntry struct {
	CommandID string    `json:"command_id"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Discarded bool      `json:"discarded"`
	Error     string    `json:"error,omitempty"`
}

type AuditLogger struct {
	logger aqm.Logger
}

func NewAuditLogger(logger aqm.Logger) *AuditLogger {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &AuditLogger{logger: logger}
}

func (a *AuditLogger) Log(ctx context.Context, entry AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	a.logger.Info("audit",
		"command_id", entry.CommandID,
		"action", entry.Action,
		"target", entry.Target,
		"success", entry.Success,
		"discarded", entry.Discarded,
		"timestamp", entry.Timestamp.Format(time.RFC3339),
		"error", entry.Error,
	)
}

// LogOutcome records a finished flow submission.
func (a *AuditLogger) LogOutcome(ctx context.Context, outcome flow.Outcome) {
	a.Log(ctx, auditEntryFor(outcome))
}

func auditEntryFor(outcome flow.Outcome) AuditEntry {
	entry := AuditEntry{
		CommandID: outcome.ID.String(),
		Action:    outcome.Command,
		Target:    outcome.Flow,
		Timestamp: outcome.FinishedAt,
		Success:   outcome.Succeeded(),
		Discarded: outcome.Discarded,
	}
	if outcome.Err != nil {
		entry.Error = outcome.Err.Error()
	}
	return entry
}
