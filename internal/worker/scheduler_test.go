package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/queue"
	"replyflow.app/relay/internal/worker"
)

var _ = Describe("Scheduler", func() {
	var (
		ctx      context.Context
		accounts *mockAccountLister
		producer *mockProducer
		gate     *memoryGate
		cfg      worker.SchedulerConfig
	)

	BeforeEach(func() {
		ctx = context.Background()
		accounts = &mockAccountLister{listFn: func(context.Context) ([]model.Account, error) {
			return []model.Account{{ID: 1}, {ID: 2}}, nil
		}}
		producer = &mockProducer{}
		gate = &memoryGate{}
		cfg = worker.SchedulerConfig{PollInterval: time.Hour, SweepInterval: time.Hour}
	})

	It("enqueues one task per account with active rules", func() {
		s := worker.NewScheduler(accounts, producer, gate, cfg, nil)

		n, err := s.Enqueue(ctx, queue.TaskTypeSweepAccount, time.Hour)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
		Expect(producer.tasks).To(HaveLen(2))
		Expect(producer.tasks[0].TaskType).To(Equal(queue.TaskTypeSweepAccount))
		Expect(producer.tasks[1].AccountID).To(Equal(int64(2)))
	})

	It("enqueues a slot once across schedulers", func() {
		first := worker.NewScheduler(accounts, producer, gate, cfg, nil)
		second := worker.NewScheduler(accounts, producer, gate, cfg, nil)

		_, err := first.Enqueue(ctx, queue.TaskTypePollAccount, time.Hour)
		Expect(err).NotTo(HaveOccurred())
		n, err := second.Enqueue(ctx, queue.TaskTypePollAccount, time.Hour)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
		Expect(producer.tasks).To(HaveLen(2))
	})

	It("continues past a failed enqueue", func() {
		producer.enqueueFn = func(_ context.Context, task queue.Task) error {
			if task.AccountID == 1 {
				return errors.New("stream full")
			}
			return nil
		}
		s := worker.NewScheduler(accounts, producer, gate, cfg, nil)

		n, err := s.Enqueue(ctx, queue.TaskTypePollAccount, time.Hour)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})

	It("reports account listing failures", func() {
		accounts.listFn = func(context.Context) ([]model.Account, error) {
			return nil, errors.New("db down")
		}
		s := worker.NewScheduler(accounts, producer, gate, cfg, nil)

		_, err := s.Enqueue(ctx, queue.TaskTypePollAccount, time.Hour)
		Expect(err).To(HaveOccurred())
	})

	It("does not enqueue when the gate is unavailable", func() {
		gate.err = errors.New("redis down")
		s := worker.NewScheduler(accounts, producer, gate, cfg, nil)

		_, err := s.Enqueue(ctx, queue.TaskTypePollAccount, time.Hour)
		Expect(err).To(HaveOccurred())
		Expect(producer.tasks).To(BeEmpty())
	})

	It("schedules on its tickers until cancelled", func() {
		cfg = worker.SchedulerConfig{SweepInterval: 20 * time.Millisecond}
		s := worker.NewScheduler(accounts, producer, nil, cfg, nil)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			s.Run(runCtx)
			close(done)
		}()

		Eventually(func() int {
			producer.mu.Lock()
			defer producer.mu.Unlock()
			return len(producer.tasks)
		}).Should(BeNumerically(">=", 2))
		cancel()
		Eventually(done).Should(BeClosed())
	})
})
