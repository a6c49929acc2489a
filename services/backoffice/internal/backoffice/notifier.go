package backoffice

import (
	"context"
	"encoding/json"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/appetiteclub/backoffice/pkg"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/flow"
)

// CommandNotifier publishes command outcomes on the back-office command topic.
type CommandNotifier struct {
	publisher events.Publisher
	source    string
	logger    aqm.Logger
}

func NewCommandNotifier(publisher events.Publisher, source string, logger aqm.Logger) *CommandNotifier {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &CommandNotifier{publisher: publisher, source: source, logger: logger}
}

func (n *CommandNotifier) Notify(ctx context.Context, outcome flow.Outcome) {
	if n == nil || n.publisher == nil {
		return
	}

	evt := commandCompletedEvent(outcome, n.source)
	payload, err := json.Marshal(evt)
	if err != nil {
		n.logger.Error("failed to marshal command event", "error", err)
		return
	}

	if err := n.publisher.Publish(ctx, pkg.BackofficeCommandTopic, payload); err != nil {
		n.logger.Error("failed to publish command event", "error", err, "command", outcome.Command)
	}
}

func commandCompletedEvent(outcome flow.Outcome, source string) pkg.CommandCompletedEvent {
	evt := pkg.CommandCompletedEvent{
		EventType:  pkg.EventCommandCompleted,
		CommandID:  outcome.ID.String(),
		Command:    outcome.Command,
		Target:     outcome.Flow,
		Success:    outcome.Succeeded(),
		Source:     source,
		OccurredAt: outcome.FinishedAt,
	}
	if outcome.Err != nil {
		evt.Error = outcome.Err.Error()
	}
	return evt
}
