package dto

// ThreadsWebhookPayload is the body Meta posts for Threads subscriptions. Each entry is one
// subscribed Threads user; each change one event on their content.
type ThreadsWebhookPayload struct {
	Object string                `json:"object"`
	Entry  []ThreadsWebhookEntry `json:"entry"`
}

type ThreadsWebhookEntry struct {
	ID      string                 `json:"id"`
	Time    int64                  `json:"time"`
	Changes []ThreadsWebhookChange `json:"changes"`
}

type ThreadsWebhookChange struct {
	Field string             `json:"field"`
	Value ThreadsChangeValue `json:"value"`
}

type ThreadsChangeValue struct {
	ID         string        `json:"id"`
	MediaID    string        `json:"media_id,omitempty"`
	UserID     string        `json:"user_id,omitempty"`
	Username   string        `json:"username"`
	Text       string        `json:"text"`
	Timestamp  string        `json:"timestamp"`
	RootPost   *ThreadsRefID `json:"root_post,omitempty"`
	RepliedTo  *ThreadsRefID `json:"replied_to,omitempty"`
	QuotedPost *ThreadsRefID `json:"quoted_post,omitempty"`
}

type ThreadsRefID struct {
	ID string `json:"id"`
}
