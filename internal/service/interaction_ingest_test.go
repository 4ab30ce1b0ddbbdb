package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/queue"
	"replyflow.app/relay/internal/service"
	"replyflow.app/relay/internal/store"
)

var _ = Describe("InteractionIngestService", func() {
	var (
		ctx      context.Context
		accounts *mockAccountStore
		producer *mockProducer
		svc      service.InteractionIngestService
		reply    model.Interaction
	)

	BeforeEach(func() {
		ctx = context.Background()
		accounts = &mockAccountStore{getByExternalUserIDFn: func(_ context.Context, externalUserID string) (*model.Account, error) {
			Expect(externalUserID).To(Equal("threads-user-1"))
			return &model.Account{ID: 1, ExternalUserID: externalUserID, IsActive: true}, nil
		}}
		producer = &mockProducer{}
		svc = service.NewInteractionIngestService(accounts, producer, nil)
		reply = model.Interaction{
			ExternalID:     "r1",
			Kind:           model.InteractionKindReply,
			PostExternalID: "post-10",
			AuthorName:     "alice",
			Text:           "great post",
			OccurredAt:     fixedTime,
		}
	})

	It("enqueues one interaction task per interaction", func() {
		other := reply
		other.ExternalID = "r2"

		result, err := svc.Ingest(ctx, "threads-user-1", []model.Interaction{reply, other})
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(service.IngestResult{Enqueued: 2}))

		Expect(producer.tasks).To(HaveLen(2))
		Expect(producer.tasks[0].TaskType).To(Equal(queue.TaskTypeInteraction))
		Expect(producer.tasks[0].AccountID).To(Equal(int64(1)))
		Expect(producer.tasks[0].Interaction.ExternalID).To(Equal("r1"))
		Expect(producer.tasks[1].Interaction.ExternalID).To(Equal("r2"))
	})

	It("drops interactions without a parent post or with an unknown kind", func() {
		noPost := reply
		noPost.PostExternalID = ""
		badKind := reply
		badKind.Kind = "share"

		result, err := svc.Ingest(ctx, "threads-user-1", []model.Interaction{noPost, badKind, reply})
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(service.IngestResult{Enqueued: 1, Dropped: 2}))
	})

	It("reports unknown accounts", func() {
		accounts.getByExternalUserIDFn = func(context.Context, string) (*model.Account, error) {
			return nil, store.ErrNotFound
		}

		_, err := svc.Ingest(ctx, "threads-user-1", []model.Interaction{reply})
		Expect(err).To(MatchError(service.ErrAccountNotFound))
		Expect(producer.tasks).To(BeEmpty())
	})

	It("ignores interactions for inactive accounts", func() {
		accounts.getByExternalUserIDFn = func(context.Context, string) (*model.Account, error) {
			return &model.Account{ID: 1, IsActive: false}, nil
		}

		result, err := svc.Ingest(ctx, "threads-user-1", []model.Interaction{reply})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Dropped).To(Equal(1))
		Expect(producer.tasks).To(BeEmpty())
	})

	It("fails when the queue rejects a task", func() {
		producer.enqueueFn = func(context.Context, queue.Task) error {
			return errors.New("redis down")
		}

		_, err := svc.Ingest(ctx, "threads-user-1", []model.Interaction{reply})
		Expect(err).To(HaveOccurred())
	})

	It("requires the external user id", func() {
		_, err := svc.Ingest(ctx, "", []model.Interaction{reply})
		Expect(err).To(HaveOccurred())
	})
})
