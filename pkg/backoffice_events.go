package pkg

import "time"

const (
	// BackofficeCommandTopic carries the outcome of every mutation issued by a back-office instance.
	BackofficeCommandTopic = "backoffice.commands"
	// BackofficeInvalidationTopic tells every back-office instance which cached collections are stale.
	BackofficeInvalidationTopic = "backoffice.invalidations"

	// EventCommandCompleted identifies a command outcome payload.
	EventCommandCompleted = "backoffice.command.completed"
	// EventCollectionsInvalidated identifies an invalidation payload.
	EventCollectionsInvalidated = "backoffice.collections.invalidated"
)

// CommandCompletedEvent records a mutation sent to the remote API and how it ended.
type CommandCompletedEvent struct {
	EventType  string    `json:"event_type"`
	CommandID  string    `json:"command_id"`
	Command    string    `json:"command"`
	Target     string    `json:"target"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Source     string    `json:"source,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// InvalidationKey names one cached collection entry. An empty Scope covers
// the whole collection.
type InvalidationKey struct {
	Collection string `json:"collection"`
	Scope      string `json:"scope,omitempty"`
}

// CollectionsInvalidatedEvent is emitted after a mutation response has been observed.
type CollectionsInvalidatedEvent struct {
	EventType  string            `json:"event_type"`
	Keys       []InvalidationKey `json:"keys"`
	Source     string            `json:"source,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
