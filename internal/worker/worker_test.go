package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/queue"
	"replyflow.app/relay/internal/store"
	"replyflow.app/relay/internal/worker"
)

var _ = Describe("Worker", func() {
	var (
		ctx        context.Context
		consumer   *mockConsumer
		dispatcher *mockDispatcher
		sweeper    *mockSweeper
		w          *worker.Worker
	)

	BeforeEach(func() {
		ctx = context.Background()
		consumer = &mockConsumer{}
		dispatcher = &mockDispatcher{}
		sweeper = &mockSweeper{}
		w = worker.New(consumer, dispatcher, sweeper, worker.Config{MaxAttempts: 3}, nil)
	})

	interactionMsg := func(attempt int) queue.Message {
		return queue.Message{
			ID:        "1-0",
			TaskType:  queue.TaskTypeInteraction,
			AccountID: 1,
			Attempt:   attempt,
			Interaction: &model.Interaction{
				ExternalID: "r1", Kind: model.InteractionKindReply, PostExternalID: "post-10",
			},
		}
	}

	It("routes interaction tasks to HandleInteraction and acks", func() {
		var got model.Interaction
		dispatcher.interactionFn = func(_ context.Context, accountID int64, in model.Interaction) (autoreply.Summary, error) {
			Expect(accountID).To(Equal(int64(1)))
			got = in
			return autoreply.Summary{Processed: 1}, nil
		}

		Expect(w.HandleMessage(ctx, interactionMsg(1))).To(Succeed())
		Expect(got.ExternalID).To(Equal("r1"))
		Expect(consumer.ackedIDs()).To(ConsistOf("1-0"))
	})

	It("routes poll and sweep tasks", func() {
		var polled, swept int64
		dispatcher.processFn = func(_ context.Context, accountID int64) (autoreply.Summary, error) {
			polled = accountID
			return autoreply.Summary{}, nil
		}
		sweeper.sweepFn = func(_ context.Context, accountID int64) (autoreply.SweepSummary, error) {
			swept = accountID
			return autoreply.SweepSummary{}, nil
		}

		Expect(w.HandleMessage(ctx, queue.Message{ID: "2-0", TaskType: queue.TaskTypePollAccount, AccountID: 7, Attempt: 1})).To(Succeed())
		Expect(w.HandleMessage(ctx, queue.Message{ID: "3-0", TaskType: queue.TaskTypeSweepAccount, AccountID: 8, Attempt: 1})).To(Succeed())
		Expect(polled).To(Equal(int64(7)))
		Expect(swept).To(Equal(int64(8)))
		Expect(consumer.ackedIDs()).To(ConsistOf("2-0", "3-0"))
	})

	It("requeues a failed task while attempts remain", func() {
		dispatcher.interactionFn = func(context.Context, int64, model.Interaction) (autoreply.Summary, error) {
			return autoreply.Summary{}, errors.New("connection refused")
		}

		Expect(w.HandleMessage(ctx, interactionMsg(1))).NotTo(Succeed())
		Expect(consumer.requeued).To(ConsistOf("1-0"))
		Expect(consumer.dlq).To(BeEmpty())
	})

	It("sends a task to the DLQ after the last attempt", func() {
		sweeper.sweepFn = func(context.Context, int64) (autoreply.SweepSummary, error) {
			return autoreply.SweepSummary{}, autoreply.ErrFinalizeFailed
		}

		Expect(w.HandleMessage(ctx, queue.Message{ID: "4-0", TaskType: queue.TaskTypeSweepAccount, AccountID: 1, Attempt: 3})).NotTo(Succeed())
		Expect(consumer.dlq).To(ConsistOf("4-0"))
		Expect(consumer.requeued).To(BeEmpty())
	})

	It("drops tasks that cannot succeed", func() {
		dispatcher.processFn = func(context.Context, int64) (autoreply.Summary, error) {
			return autoreply.Summary{}, autoreply.ErrAccountInactive
		}
		Expect(w.HandleMessage(ctx, queue.Message{ID: "5-0", TaskType: queue.TaskTypePollAccount, AccountID: 1, Attempt: 1})).To(Succeed())

		dispatcher.processFn = func(context.Context, int64) (autoreply.Summary, error) {
			return autoreply.Summary{}, store.ErrNotFound
		}
		Expect(w.HandleMessage(ctx, queue.Message{ID: "6-0", TaskType: queue.TaskTypePollAccount, AccountID: 2, Attempt: 1})).To(Succeed())

		Expect(consumer.ackedIDs()).To(ConsistOf("5-0", "6-0"))
		Expect(consumer.requeued).To(BeEmpty())
	})

	It("drops an interaction task without an interaction", func() {
		Expect(w.HandleMessage(ctx, queue.Message{ID: "7-0", TaskType: queue.TaskTypeInteraction, AccountID: 1, Attempt: 1})).To(Succeed())
		Expect(consumer.ackedIDs()).To(ConsistOf("7-0"))
	})

	It("recovers from a panicking task", func() {
		dispatcher.processFn = func(context.Context, int64) (autoreply.Summary, error) {
			panic("nil map")
		}

		err := w.HandleMessage(ctx, queue.Message{ID: "8-0", TaskType: queue.TaskTypePollAccount, AccountID: 1, Attempt: 1})
		Expect(err).To(MatchError(ContainSubstring("panic: nil map")))
		Expect(consumer.requeued).To(ConsistOf("8-0"))
	})

	It("drains batches until stopped", func() {
		consumer.batches = [][]queue.Message{
			{{ID: "9-0", TaskType: queue.TaskTypePollAccount, AccountID: 1, Attempt: 1}},
			{{ID: "10-0", TaskType: queue.TaskTypeSweepAccount, AccountID: 1, Attempt: 1}},
		}

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- w.Run(runCtx) }()

		Eventually(consumer.ackedIDs).Should(ConsistOf("9-0", "10-0"))
		w.Stop()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("returns when the context is cancelled", func() {
		consumer.readErr = errors.New("redis down")

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- w.Run(runCtx) }()

		time.Sleep(10 * time.Millisecond)
		cancel()
		Eventually(done, 2*time.Second).Should(Receive(MatchError(context.Canceled)))
	})
})
