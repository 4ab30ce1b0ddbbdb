package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/http/dto"
	"replyflow.app/relay/internal/service"
)

type AutoReplyHandler struct {
	autoReply service.AutoReplyService
}

func NewAutoReplyHandler(autoReply service.AutoReplyService) *AutoReplyHandler {
	return &AutoReplyHandler{autoReply: autoReply}
}

// Process runs the dispatcher for one account and returns its summary.
func (h *AutoReplyHandler) Process(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, ok := pathID(c, "account_id")
	if !ok {
		return
	}

	summary, err := h.autoReply.Process(ctx, accountID)
	if err != nil {
		slog.ErrorContext(ctx, "auto-reply process failed", "error", err, "account_id", accountID)
		writeRunError(c, err, summary)
		return
	}

	c.JSON(http.StatusOK, dto.ProcessResponse{AccountID: accountID, Summary: summary})
}

func (h *AutoReplyHandler) Sweep(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, ok := pathID(c, "account_id")
	if !ok {
		return
	}

	summary, err := h.autoReply.Sweep(ctx, accountID)
	if err != nil {
		slog.ErrorContext(ctx, "auto-reply sweep failed", "error", err, "account_id", accountID)
		writeRunError(c, err, summary)
		return
	}

	c.JSON(http.StatusOK, dto.SweepResponse{AccountID: accountID, Summary: summary})
}

func (h *AutoReplyHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, ok := pathID(c, "account_id")
	if !ok {
		return
	}
	ruleID, ok := pathID(c, "rule_id")
	if !ok {
		return
	}

	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.autoReply.History(ctx, accountID, ruleID, query.Limit)
	if err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		slog.ErrorContext(ctx, "listing reply history failed", "error", err, "rule_id", ruleID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reply history"})
		return
	}

	c.JSON(http.StatusOK, dto.ToHistoryResponse(ruleID, records))
}

func pathID(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func writeRunError(c *gin.Context, err error, summary any) {
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
	case errors.Is(err, autoreply.ErrAccountInactive):
		c.JSON(http.StatusConflict, gin.H{"error": "account is not active"})
	case errors.Is(err, autoreply.ErrFinalizeFailed):
		// a reply may have been published without being recorded
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reply outcome not recorded", "summary": summary})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "auto-reply run failed"})
	}
}
