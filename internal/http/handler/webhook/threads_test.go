package webhook_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"replyflow.app/relay/internal/http/dto"
	"replyflow.app/relay/internal/http/handler/webhook"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/service"
)

type mockIngestService struct {
	ingestFn func(ctx context.Context, externalUserID string, interactions []model.Interaction) (service.IngestResult, error)
}

func (m *mockIngestService) Ingest(ctx context.Context, externalUserID string, interactions []model.Interaction) (service.IngestResult, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, externalUserID, interactions)
	}
	return service.IngestResult{Enqueued: len(interactions)}, nil
}

const (
	appSecret   = "app-secret"
	verifyToken = "verify-me"
	replyBody   = `{"object":"threads","entry":[{"id":"threads-user-1","time":1772366400,"changes":[
		{"field":"replies","value":{"id":"r1","username":"alice","text":"great post","timestamp":"2026-03-01T12:00:00+0000",
		 "root_post":{"id":"post-10"},"replied_to":{"id":"post-10"}}},
		{"field":"mentions","value":{"id":"m1"}}]}]}`
)

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

var _ = Describe("ThreadsWebhookHandler", func() {
	var (
		router *gin.Engine
		ingest *mockIngestService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		ingest = &mockIngestService{}
		h := webhook.NewThreadsWebhookHandler(ingest, appSecret, verifyToken)
		router.GET("/webhooks/threads", h.Verify)
		router.POST("/webhooks/threads", h.HandleEvent)
	})

	post := func(body, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/threads", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if signature != "" {
			req.Header.Set("X-Hub-Signature-256", signature)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Verify", func() {
		It("echoes the challenge for a matching token", func() {
			req := httptest.NewRequest(http.MethodGet, "/webhooks/threads?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal("12345"))
		})

		It("rejects a wrong token", func() {
			req := httptest.NewRequest(http.MethodGet, "/webhooks/threads?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("HandleEvent", func() {
		It("ingests reply changes for the entry's account", func() {
			var got []model.Interaction
			ingest.ingestFn = func(_ context.Context, externalUserID string, interactions []model.Interaction) (service.IngestResult, error) {
				Expect(externalUserID).To(Equal("threads-user-1"))
				got = interactions
				return service.IngestResult{Enqueued: len(interactions)}, nil
			}

			w := post(replyBody, sign(replyBody))
			Expect(w.Code).To(Equal(http.StatusOK))

			Expect(got).To(HaveLen(1))
			Expect(got[0].ExternalID).To(Equal("r1"))
			Expect(got[0].Kind).To(Equal(model.InteractionKindReply))
			Expect(got[0].PostExternalID).To(Equal("post-10"))
			Expect(got[0].AuthorName).To(Equal("alice"))
			Expect(got[0].AuthorID).To(Equal("alice"))
			Expect(got[0].OccurredAt).To(Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
		})

		It("rejects a bad signature", func() {
			Expect(post(replyBody, "sha256=deadbeef").Code).To(Equal(http.StatusUnauthorized))
			Expect(post(replyBody, "").Code).To(Equal(http.StatusUnauthorized))
		})

		It("rejects an unparseable body", func() {
			Expect(post("{", sign("{")).Code).To(Equal(http.StatusBadRequest))
		})

		It("acknowledges webhooks for unknown accounts", func() {
			ingest.ingestFn = func(context.Context, string, []model.Interaction) (service.IngestResult, error) {
				return service.IngestResult{}, service.ErrAccountNotFound
			}
			Expect(post(replyBody, sign(replyBody)).Code).To(Equal(http.StatusOK))
		})

		It("fails so the platform redelivers when ingest fails", func() {
			ingest.ingestFn = func(context.Context, string, []model.Interaction) (service.IngestResult, error) {
				return service.IngestResult{}, errors.New("redis down")
			}
			Expect(post(replyBody, sign(replyBody)).Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("ToInteractions", func() {
		It("maps likes to the liked post without an id", func() {
			entry := dto.ThreadsWebhookEntry{ID: "u", Changes: []dto.ThreadsWebhookChange{
				{Field: "likes", Value: dto.ThreadsChangeValue{ID: "ignored", MediaID: "post-10", UserID: "u2", Username: "bob"}},
				{Field: "quotes", Value: dto.ThreadsChangeValue{ID: "q1", QuotedPost: &dto.ThreadsRefID{ID: "post-11"}}},
			}}

			got := webhook.ToInteractions(entry)
			Expect(got).To(HaveLen(2))
			Expect(got[0].Kind).To(Equal(model.InteractionKindLike))
			Expect(got[0].ExternalID).To(BeEmpty())
			Expect(got[0].PostExternalID).To(Equal("post-10"))
			Expect(got[0].AuthorID).To(Equal("bob"))
			Expect(got[1].Kind).To(Equal(model.InteractionKindQuote))
			Expect(got[1].PostExternalID).To(Equal("post-11"))
		})
	})
})
