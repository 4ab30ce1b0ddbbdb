package dto

import (
	"time"

	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/model"
)

type ProcessResponse struct {
	AccountID int64             `json:"account_id,string"`
	Summary   autoreply.Summary `json:"summary"`
}

type SweepResponse struct {
	AccountID int64                  `json:"account_id,string"`
	Summary   autoreply.SweepSummary `json:"summary"`
}

type HistoryQuery struct {
	Limit int32 `form:"limit" binding:"omitempty,min=1,max=200"`
}

type ReplyRecordResponse struct {
	ID                int64      `json:"id,string"`
	RuleID            int64      `json:"rule_id,string"`
	PostID            int64      `json:"post_id,string"`
	TriggerExternalID string     `json:"trigger_external_id"`
	TriggerKind       string     `json:"trigger_kind"`
	TriggerAuthorName string     `json:"trigger_author_name"`
	ReplyType         string     `json:"reply_type"`
	ReplyContent      string     `json:"reply_content"`
	Status            string     `json:"status"`
	ScheduledSendAt   *time.Time `json:"scheduled_send_at,omitempty"`
	ExternalMessageID *string    `json:"external_message_id,omitempty"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	ErrorMessage      *string    `json:"error_message,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type HistoryResponse struct {
	RuleID  int64                 `json:"rule_id,string"`
	Records []ReplyRecordResponse `json:"records"`
}

func ToReplyRecordResponse(r model.ReplyRecord) ReplyRecordResponse {
	return ReplyRecordResponse{
		ID:                r.ID,
		RuleID:            r.RuleID,
		PostID:            r.PostID,
		TriggerExternalID: r.TriggerExternalID,
		TriggerKind:       string(r.TriggerKind),
		TriggerAuthorName: r.TriggerAuthorName,
		ReplyType:         string(r.ReplyType),
		ReplyContent:      r.ReplyContent,
		Status:            string(r.Status),
		ScheduledSendAt:   r.ScheduledSendAt,
		ExternalMessageID: r.ExternalMessageID,
		SentAt:            r.SentAt,
		ErrorMessage:      r.ErrorMessage,
		CreatedAt:         r.CreatedAt,
	}
}

func ToHistoryResponse(ruleID int64, records []model.ReplyRecord) HistoryResponse {
	resp := HistoryResponse{RuleID: ruleID, Records: make([]ReplyRecordResponse, 0, len(records))}
	for _, r := range records {
		resp.Records = append(resp.Records, ToReplyRecordResponse(r))
	}
	return resp
}
