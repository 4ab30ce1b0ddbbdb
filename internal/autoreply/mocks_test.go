package autoreply_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"replyflow.app/relay/internal/model"
	"replyflow.app/relay/internal/publisher"
	"replyflow.app/relay/internal/store"
)

type mockAccountStore struct {
	accounts map[int64]*model.Account
}

func (m *mockAccountStore) GetByID(_ context.Context, id int64) (*model.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockAccountStore) GetByExternalUserID(_ context.Context, externalUserID string) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.ExternalUserID == externalUserID {
			return a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockAccountStore) ListWithActiveRules(_ context.Context) ([]model.Account, error) {
	var out []model.Account
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	return out, nil
}

type mockPostStore struct {
	mu         sync.Mutex
	posts      []model.Post
	listErr    error
	listCalls  int
	getByIDErr error
}

func (m *mockPostStore) GetByID(_ context.Context, id int64) (*model.Post, error) {
	if m.getByIDErr != nil {
		return nil, m.getByIDErr
	}
	for i := range m.posts {
		if m.posts[i].ID == id {
			p := m.posts[i]
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockPostStore) GetPublishedByExternalID(_ context.Context, accountID int64, externalID string) (*model.Post, error) {
	for i := range m.posts {
		p := m.posts[i]
		if p.AccountID == accountID && p.Live() && *p.ExternalID == externalID {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockPostStore) ListRecentPublished(_ context.Context, accountID int64, limit int32) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Post
	for _, p := range m.posts {
		if p.AccountID == accountID && p.Live() && len(out) < int(limit) {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockRuleStore struct {
	rules []model.Rule
}

func (m *mockRuleStore) GetByID(_ context.Context, id int64) (*model.Rule, error) {
	for i := range m.rules {
		if m.rules[i].ID == id {
			r := m.rules[i]
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockRuleStore) ListActive(_ context.Context, accountID int64) ([]model.Rule, error) {
	var out []model.Rule
	for _, r := range m.rules {
		if r.AccountID == accountID && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRuleStore) ListActiveForPost(_ context.Context, accountID, postID int64) ([]model.Rule, error) {
	var out []model.Rule
	for _, r := range m.rules {
		if r.AccountID == accountID && r.IsActive && (r.TargetPostID == nil || *r.TargetPostID == postID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// memoryRecordStore behaves like reply_records: unique (rule_id, trigger_external_id),
// atomic claims and conditional terminal updates.
type memoryRecordStore struct {
	mu      sync.Mutex
	records map[int64]*model.ReplyRecord
	keys    map[string]int64
	now     func() time.Time

	// markErrs is consumed one error per MarkSent/MarkFailed call.
	markErrs   []error
	reserveErr error
	touchErr   error

	// hideClaimed makes ListClaimedTriggerIDs report nothing, as if a racing path had not yet inserted.
	hideClaimed bool
}

func newMemoryRecordStore(now func() time.Time) *memoryRecordStore {
	return &memoryRecordStore{
		records: make(map[int64]*model.ReplyRecord),
		keys:    make(map[string]int64),
		now:     now,
	}
}

func recordKey(ruleID int64, trigger string) string {
	return fmt.Sprintf("%d|%s", ruleID, trigger)
}

func (m *memoryRecordStore) Reserve(_ context.Context, rec *model.ReplyRecord) (*model.ReplyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reserveErr != nil {
		return nil, m.reserveErr
	}

	key := recordKey(rec.RuleID, rec.TriggerExternalID)
	if _, taken := m.keys[key]; taken {
		return nil, store.ErrAlreadyClaimed
	}

	stored := *rec
	stored.CreatedAt = m.now()
	stored.UpdatedAt = stored.CreatedAt
	m.records[stored.ID] = &stored
	m.keys[key] = stored.ID

	out := stored
	return &out, nil
}

func (m *memoryRecordStore) GetByID(_ context.Context, id int64) (*model.ReplyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		out := *r
		return &out, nil
	}
	return nil, store.ErrNotFound
}

func (m *memoryRecordStore) ListClaimedTriggerIDs(_ context.Context, ruleID int64, triggerIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideClaimed {
		return nil, nil
	}
	var out []string
	for _, t := range triggerIDs {
		if _, ok := m.keys[recordKey(ruleID, t)]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryRecordStore) Claim(_ context.Context, id int64, status model.ReplyStatus) (*model.ReplyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.Status != status || r.ClaimedAt != nil {
		return nil, store.ErrAlreadyClaimed
	}
	now := m.now()
	r.ClaimedAt = &now
	out := *r
	return &out, nil
}

func (m *memoryRecordStore) popMarkErr() error {
	if len(m.markErrs) == 0 {
		return nil
	}
	err := m.markErrs[0]
	m.markErrs = m.markErrs[1:]
	return err
}

func (m *memoryRecordStore) MarkSent(_ context.Context, id int64, externalMessageID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popMarkErr(); err != nil {
		return false, err
	}
	r, ok := m.records[id]
	if !ok || r.Status.Terminal() {
		return false, nil
	}
	now := m.now()
	r.Status = model.ReplyStatusSent
	r.ExternalMessageID = &externalMessageID
	r.SentAt = &now
	return true, nil
}

func (m *memoryRecordStore) MarkFailed(_ context.Context, id int64, errMsg string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popMarkErr(); err != nil {
		return false, err
	}
	r, ok := m.records[id]
	if !ok || r.Status.Terminal() {
		return false, nil
	}
	r.Status = model.ReplyStatusFailed
	r.ErrorMessage = &errMsg
	return true, nil
}

func (m *memoryRecordStore) sorted(filter func(*model.ReplyRecord) bool, limit int32) []model.ReplyRecord {
	var out []model.ReplyRecord
	for _, r := range m.records {
		if filter(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostID != out[j].PostID {
			return out[i].PostID < out[j].PostID
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > int(limit) {
		out = out[:limit]
	}
	return out
}

func (m *memoryRecordStore) ListDue(_ context.Context, accountID int64, now time.Time, limit int32) ([]model.ReplyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(r *model.ReplyRecord) bool {
		return r.AccountID == accountID && r.Status == model.ReplyStatusPending && r.ClaimedAt == nil &&
			r.ScheduledSendAt != nil && !r.ScheduledSendAt.After(now)
	}, limit), nil
}

func (m *memoryRecordStore) ListWaitingLikes(_ context.Context, accountID int64, limit int32) ([]model.ReplyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.ReplyRecord
	for _, r := range m.records {
		if r.AccountID == accountID && r.Status == model.ReplyStatusWaitingLikes && r.ClaimedAt == nil {
			out = append(out, *r)
		}
	}
	// likes_checked_at NULLS FIRST, created_at, id
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LikesCheckedAt, out[j].LikesCheckedAt
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && !a.Equal(*b):
			return a.Before(*b)
		case !out[i].CreatedAt.Equal(out[j].CreatedAt):
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRecordStore) MarkLikesChecked(_ context.Context, ids []int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.touchErr != nil {
		return m.touchErr
	}
	for _, id := range ids {
		if r, ok := m.records[id]; ok && r.Status == model.ReplyStatusWaitingLikes {
			checked := at
			r.LikesCheckedAt = &checked
		}
	}
	return nil
}

func (m *memoryRecordStore) ExpireWaitingLikes(_ context.Context, accountID int64, createdBefore time.Time, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.AccountID == accountID && r.Status == model.ReplyStatusWaitingLikes && r.ClaimedAt == nil && r.CreatedAt.Before(createdBefore) {
			msg := reason
			r.Status = model.ReplyStatusFailed
			r.ErrorMessage = &msg
			n++
		}
	}
	return n, nil
}

func (m *memoryRecordStore) ListStaleClaims(_ context.Context, accountID int64, claimedBefore time.Time, limit int32) ([]model.ReplyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(r *model.ReplyRecord) bool {
		return r.AccountID == accountID && !r.Status.Terminal() && r.ClaimedAt != nil && r.ClaimedAt.Before(claimedBefore)
	}, limit), nil
}

func (m *memoryRecordStore) ListByRule(_ context.Context, ruleID int64, limit int32) ([]model.ReplyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(r *model.ReplyRecord) bool { return r.RuleID == ruleID }, limit), nil
}

func (m *memoryRecordStore) all() []model.ReplyRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(*model.ReplyRecord) bool { return true }, 0)
}

type sentMessage struct {
	Quote    bool
	TargetID string
	Content  publisher.Content
}

type mockPublisher struct {
	mu sync.Mutex

	interactions map[string][]model.Interaction
	likes        map[string]int
	listErr      error
	metricsErr   error
	sendErr      error

	sent         []sentMessage
	listCalls    int
	metricsCalls int
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{
		interactions: make(map[string][]model.Interaction),
		likes:        make(map[string]int),
	}
}

func (m *mockPublisher) ListInteractions(_ context.Context, postExternalID string, kind model.InteractionKind) ([]model.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Interaction
	for _, in := range m.interactions[postExternalID] {
		if in.Kind == kind {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *mockPublisher) send(quote bool, target string, content publisher.Content) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.sent = append(m.sent, sentMessage{Quote: quote, TargetID: target, Content: content})
	return "msg-" + target, nil
}

func (m *mockPublisher) SendReply(_ context.Context, replyToExternalID string, content publisher.Content) (string, error) {
	return m.send(false, replyToExternalID, content)
}

func (m *mockPublisher) SendQuote(_ context.Context, quotedExternalID string, content publisher.Content) (string, error) {
	return m.send(true, quotedExternalID, content)
}

func (m *mockPublisher) GetPostMetrics(_ context.Context, postExternalID string) (publisher.PostMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metricsCalls++
	if m.metricsErr != nil {
		return publisher.PostMetrics{}, m.metricsErr
	}
	return publisher.PostMetrics{Likes: m.likes[postExternalID]}, nil
}

func (m *mockPublisher) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockPublisher) setLikes(postExternalID string, likes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likes[postExternalID] = likes
}

type mockPublisherFactory struct {
	pub publisher.Publisher
}

func (f *mockPublisherFactory) ForAccount(*model.Account) publisher.Publisher {
	return f.pub
}

type mockLimiter struct {
	mu        sync.Mutex
	acquireFn func(ctx context.Context, accountID int64) error
	calls     int
}

func (m *mockLimiter) Acquire(ctx context.Context, accountID int64) error {
	m.mu.Lock()
	m.calls++
	fn := m.acquireFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, accountID)
	}
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
