package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every log record written with a context that carries them.
// Each layer of the engine adds what it knows (account, rule, post, record, interaction)
// so deeper log statements don't repeat those attributes by hand.
type LogFields struct {
	AccountID     *int64
	RuleID        *int64
	PostID        *int64
	RecordID      *int64  // reply_records.id
	InteractionID *string // platform id of the triggering interaction
	MessageID     *string // Redis stream message ID
	TaskType      *string
	Component     string // e.g. "relay.autoreply.dispatcher"
}

// WithLogFields merges fields into the context; newer non-empty values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields returns the fields carried by ctx, or the zero value.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.AccountID != nil {
		result.AccountID = next.AccountID
	}
	if next.RuleID != nil {
		result.RuleID = next.RuleID
	}
	if next.PostID != nil {
		result.PostID = next.PostID
	}
	if next.RecordID != nil {
		result.RecordID = next.RecordID
	}
	if next.InteractionID != nil {
		result.InteractionID = next.InteractionID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.TaskType != nil {
		result.TaskType = next.TaskType
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{RuleID: logger.Ptr(rule.ID)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to maxLen bytes and appends "..." when it had to cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
