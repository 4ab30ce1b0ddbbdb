package autoreply_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/store"
)

var _ = Describe("Ledger", func() {
	var (
		ctx         context.Context
		now         time.Time
		records     *memoryRecordStore
		ledger      *autoreply.Ledger
		reservation autoreply.Reservation
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		records = newMemoryRecordStore(func() time.Time { return now })
		ledger = autoreply.NewLedger(records, 3, time.Millisecond, nil)
		reservation = autoreply.Reservation{
			Rule:        newRule(ruleID),
			Post:        model.Post{ID: postID},
			Interaction: model.Interaction{ExternalID: "r1", Kind: model.InteractionKindReply, PostExternalID: "post-10", AuthorName: "alice"},
			Content:     "hi alice",
			Status:      model.ReplyStatusPending,
			Claim:       true,
		}
	})

	It("lets exactly one of two concurrent reservations win", func() {
		var (
			wg       sync.WaitGroup
			won      atomic.Int32
			conflict atomic.Int32
		)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := ledger.Reserve(ctx, reservation, now)
				switch {
				case err == nil:
					won.Add(1)
				case errors.Is(err, store.ErrAlreadyClaimed):
					conflict.Add(1)
				default:
					Fail("unexpected error: " + err.Error())
				}
			}()
		}
		wg.Wait()

		Expect(won.Load()).To(Equal(int32(1)))
		Expect(conflict.Load()).To(Equal(int32(1)))
	})

	It("snapshots the trigger and reply target", func() {
		rec, err := ledger.Reserve(ctx, reservation, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.TriggerExternalID).To(Equal("r1"))
		Expect(rec.ReplyToExternalID).To(Equal("r1"))
		Expect(rec.ReplyType).To(Equal(model.ReplyTypeReply))
		Expect(rec.ClaimedAt).To(HaveValue(Equal(now)))
	})

	It("wraps storage failures on reserve", func() {
		records.reserveErr = errors.New("deadlock detected")
		_, err := ledger.Reserve(ctx, reservation, now)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, store.ErrAlreadyClaimed)).To(BeFalse())
	})

	It("applies a terminal transition once", func() {
		rec, err := ledger.Reserve(ctx, reservation, now)
		Expect(err).NotTo(HaveOccurred())

		Expect(ledger.Finalize(ctx, rec, autoreply.Outcome{MessageID: "m1"})).To(Succeed())
		Expect(rec.Status).To(Equal(model.ReplyStatusSent))

		late, err := records.GetByID(ctx, rec.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ledger.Finalize(ctx, late, autoreply.Outcome{Err: errors.New("late")})).To(Succeed())

		stored, err := records.GetByID(ctx, rec.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Status).To(Equal(model.ReplyStatusSent))
		Expect(stored.ErrorMessage).To(BeNil())
	})

	It("finalizes even after the caller's context is cancelled", func() {
		rec, err := ledger.Reserve(ctx, reservation, now)
		Expect(err).NotTo(HaveOccurred())

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		records.markErrs = []error{errors.New("conn reset")}

		Expect(ledger.Finalize(cancelled, rec, autoreply.Outcome{MessageID: "m1"})).To(Succeed())
		stored, _ := records.GetByID(ctx, rec.ID)
		Expect(stored.Status).To(Equal(model.ReplyStatusSent))
	})

	It("claims a reserved record only once", func() {
		reservation.Claim = false
		rec, err := ledger.Reserve(ctx, reservation, now)
		Expect(err).NotTo(HaveOccurred())

		_, err = ledger.Claim(ctx, rec, model.ReplyStatusPending)
		Expect(err).NotTo(HaveOccurred())
		_, err = ledger.Claim(ctx, rec, model.ReplyStatusPending)
		Expect(err).To(MatchError(store.ErrAlreadyClaimed))
	})
})
