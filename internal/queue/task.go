package queue

import (
	"time"

	"replyflow.app/relay/internal/model"
)

type TaskType string

const (
	// TaskTypeInteraction carries one webhook interaction for Dispatcher.HandleInteraction.
	TaskTypeInteraction  TaskType = "interaction"
	TaskTypePollAccount  TaskType = "poll_account"
	TaskTypeSweepAccount TaskType = "sweep_account"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeInteraction, TaskTypePollAccount, TaskTypeSweepAccount:
		return true
	}
	return false
}

type Task struct {
	TaskType    TaskType
	AccountID   int64
	Interaction *model.Interaction
	TraceID     *string
	Attempt     int
}

const (
	fieldTaskType        = "task_type"
	fieldAccountID       = "account_id"
	fieldAttempt         = "attempt"
	fieldTraceID         = "trace_id"
	fieldInteractionID   = "interaction_id"
	fieldInteractionKind = "interaction_kind"
	fieldPostExternalID  = "post_external_id"
	fieldAuthorID        = "author_id"
	fieldAuthorName      = "author_name"
	fieldText            = "text"
	fieldOccurredAt      = "occurred_at"
	fieldLastError       = "last_error"
	fieldError           = "error"
)

func interactionValues(values map[string]any, in *model.Interaction) {
	values[fieldInteractionID] = in.ExternalID
	values[fieldInteractionKind] = string(in.Kind)
	values[fieldPostExternalID] = in.PostExternalID
	if in.AuthorID != "" {
		values[fieldAuthorID] = in.AuthorID
	}
	if in.AuthorName != "" {
		values[fieldAuthorName] = in.AuthorName
	}
	if in.Text != "" {
		values[fieldText] = in.Text
	}
	if !in.OccurredAt.IsZero() {
		values[fieldOccurredAt] = in.OccurredAt.UTC().Format(time.RFC3339Nano)
	}
}
