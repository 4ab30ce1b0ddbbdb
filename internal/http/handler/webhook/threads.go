package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"replyflow.app/relay/internal/http/dto"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/service"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	maxBodyBytes    = 1 << 20
	metaTimeLayout  = "2006-01-02T15:04:05-0700"
)

type ThreadsWebhookHandler struct {
	ingest      service.InteractionIngestService
	appSecret   []byte
	verifyToken string
}

func NewThreadsWebhookHandler(ingest service.InteractionIngestService, appSecret, verifyToken string) *ThreadsWebhookHandler {
	return &ThreadsWebhookHandler{
		ingest:      ingest,
		appSecret:   []byte(appSecret),
		verifyToken: verifyToken,
	}
}

// Verify answers the subscription handshake by echoing hub.challenge.
func (h *ThreadsWebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		slog.WarnContext(c.Request.Context(), "threads webhook verification rejected", "mode", mode)
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}

	c.String(http.StatusOK, challenge)
}

func (h *ThreadsWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if !h.validSignature(c.GetHeader(signatureHeader), body) {
		slog.WarnContext(ctx, "threads webhook signature mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload dto.ThreadsWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	enqueued, dropped := 0, 0
	for _, entry := range payload.Entry {
		interactions := ToInteractions(entry)
		if len(interactions) == 0 {
			continue
		}

		result, err := h.ingest.Ingest(ctx, entry.ID, interactions)
		if err != nil {
			if errors.Is(err, service.ErrAccountNotFound) {
				slog.InfoContext(ctx, "threads webhook for unknown account, ignoring", "external_user_id", entry.ID)
				dropped += len(interactions)
				continue
			}
			// non-2xx makes Meta redeliver; already-queued interactions dedupe in the ledger
			slog.ErrorContext(ctx, "failed to ingest threads webhook", "error", err, "external_user_id", entry.ID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest interactions"})
			return
		}
		enqueued += result.Enqueued
		dropped += result.Dropped
	}

	slog.InfoContext(ctx, "threads webhook processed", "entries", len(payload.Entry), "enqueued", enqueued, "dropped", dropped)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "enqueued": enqueued})
}

func (h *ThreadsWebhookHandler) validSignature(header string, body []byte) bool {
	if len(h.appSecret) == 0 {
		return false
	}
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, h.appSecret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// ToInteractions maps the entry's supported changes. Unknown fields are skipped.
func ToInteractions(entry dto.ThreadsWebhookEntry) []model.Interaction {
	var out []model.Interaction
	for _, change := range entry.Changes {
		v := change.Value
		in := model.Interaction{
			ExternalID: v.ID,
			// the poll path only sees usernames, so both paths key authors by username
			AuthorID:   firstNonEmpty(v.Username, v.UserID),
			AuthorName: v.Username,
			Text:       v.Text,
			OccurredAt: parseTimestamp(v.Timestamp, entry.Time),
		}

		switch change.Field {
		case "replies":
			in.Kind = model.InteractionKindReply
			in.PostExternalID = refID(v.RootPost, v.RepliedTo)
		case "quotes":
			in.Kind = model.InteractionKindQuote
			in.PostExternalID = refID(v.QuotedPost, v.RootPost)
		case "reposts":
			in.Kind = model.InteractionKindRepost
			in.PostExternalID = firstNonEmpty(v.MediaID, refID(v.RootPost))
		case "likes":
			in.Kind = model.InteractionKindLike
			in.ExternalID = ""
			in.PostExternalID = firstNonEmpty(v.MediaID, refID(v.RootPost))
		default:
			continue
		}
		out = append(out, in)
	}
	return out
}

func refID(refs ...*dto.ThreadsRefID) string {
	for _, r := range refs {
		if r != nil && r.ID != "" {
			return r.ID
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseTimestamp(raw string, entryTime int64) time.Time {
	for _, layout := range []string{time.RFC3339, metaTimeLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	if entryTime > 0 {
		return time.Unix(entryTime, 0).UTC()
	}
	return time.Time{}
}
