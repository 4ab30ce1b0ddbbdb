package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"replyflow.app/relay/internal/model"
)

const (
	DefaultThreadsBaseURL = "https://graph.threads.net/v1.0"

	threadsTimeLayout = "2006-01-02T15:04:05-0700"
	interactionFields = "id,text,username,timestamp"
)

// APIError is a non-2xx response from the Graph API.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("threads api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("threads api: status %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
}

// ThreadsClient talks to the Threads Graph API with one account's access token.
type ThreadsClient struct {
	baseURL     string
	accessToken string
	pageSize    int
	httpClient  *http.Client
}

var _ Publisher = (*ThreadsClient)(nil)

func NewThreadsClient(baseURL, accessToken string, httpClient *http.Client) *ThreadsClient {
	if baseURL == "" {
		baseURL = DefaultThreadsBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ThreadsClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		pageSize:    50,
		httpClient:  httpClient,
	}
}

type threadsMedia struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

func (c *ThreadsClient) ListInteractions(ctx context.Context, postExternalID string, kind model.InteractionKind) ([]model.Interaction, error) {
	var edge string
	switch kind {
	case model.InteractionKindReply:
		edge = "replies"
	case model.InteractionKindQuote:
		edge = "quotes"
	case model.InteractionKindRepost:
		edge = "reposts"
	default:
		// The Graph API exposes like counts, not likers.
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	query := url.Values{}
	query.Set("fields", interactionFields)
	query.Set("limit", fmt.Sprintf("%d", c.pageSize))

	var resp struct {
		Data []threadsMedia `json:"data"`
	}
	if err := c.get(ctx, "/"+url.PathEscape(postExternalID)+"/"+edge, query, &resp); err != nil {
		return nil, fmt.Errorf("listing %s of %s: %w", edge, postExternalID, err)
	}

	interactions := make([]model.Interaction, 0, len(resp.Data))
	for _, m := range resp.Data {
		occurredAt, _ := time.Parse(threadsTimeLayout, m.Timestamp)
		interactions = append(interactions, model.Interaction{
			ExternalID:     m.ID,
			Kind:           kind,
			PostExternalID: postExternalID,
			AuthorID:       m.Username,
			AuthorName:     m.Username,
			Text:           m.Text,
			OccurredAt:     occurredAt,
		})
	}
	return interactions, nil
}

func (c *ThreadsClient) SendReply(ctx context.Context, replyToExternalID string, content Content) (string, error) {
	form := containerForm(content)
	form.Set("reply_to_id", replyToExternalID)
	return c.createAndPublish(ctx, form)
}

func (c *ThreadsClient) SendQuote(ctx context.Context, quotedExternalID string, content Content) (string, error) {
	form := containerForm(content)
	form.Set("quote_post_id", quotedExternalID)
	return c.createAndPublish(ctx, form)
}

func (c *ThreadsClient) GetPostMetrics(ctx context.Context, postExternalID string) (PostMetrics, error) {
	query := url.Values{}
	query.Set("metric", "likes,replies,reposts,quotes")

	var resp struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value int `json:"value"`
			} `json:"values"`
			TotalValue *struct {
				Value int `json:"value"`
			} `json:"total_value"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/"+url.PathEscape(postExternalID)+"/insights", query, &resp); err != nil {
		return PostMetrics{}, fmt.Errorf("reading insights of %s: %w", postExternalID, err)
	}

	var metrics PostMetrics
	for _, d := range resp.Data {
		value := 0
		switch {
		case d.TotalValue != nil:
			value = d.TotalValue.Value
		case len(d.Values) > 0:
			value = d.Values[len(d.Values)-1].Value
		}

		switch d.Name {
		case "likes":
			metrics.Likes = value
		case "replies":
			metrics.Replies = value
		case "reposts":
			metrics.Reposts = value
		case "quotes":
			metrics.Quotes = value
		}
	}
	return metrics, nil
}

func containerForm(content Content) url.Values {
	form := url.Values{}
	if content.MediaURL != nil && *content.MediaURL != "" {
		form.Set("media_type", "IMAGE")
		form.Set("image_url", *content.MediaURL)
	} else {
		form.Set("media_type", "TEXT")
	}
	if content.Text != "" {
		form.Set("text", content.Text)
	}
	return form
}

// createAndPublish runs the two-step container flow: create a media container, then publish it.
func (c *ThreadsClient) createAndPublish(ctx context.Context, form url.Values) (string, error) {
	var container struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/me/threads", form, &container); err != nil {
		return "", fmt.Errorf("creating container: %w", err)
	}
	if container.ID == "" {
		return "", fmt.Errorf("creating container: empty creation id")
	}

	publish := url.Values{}
	publish.Set("creation_id", container.ID)

	var published struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/me/threads_publish", publish, &published); err != nil {
		return "", fmt.Errorf("publishing container %s: %w", container.ID, err)
	}
	if published.ID == "" {
		return "", fmt.Errorf("publishing container %s: empty media id", container.ID)
	}
	return published.ID, nil
}

func (c *ThreadsClient) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *ThreadsClient) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *ThreadsClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		_ = json.Unmarshal(body, &envelope)
		apiErr := envelope.Error
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// ThreadsFactory builds ThreadsClients sharing one HTTP client.
type ThreadsFactory struct {
	baseURL    string
	httpClient *http.Client
}

func NewThreadsFactory(baseURL string, timeout time.Duration) *ThreadsFactory {
	return &ThreadsFactory{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *ThreadsFactory) ForAccount(account *model.Account) Publisher {
	return NewThreadsClient(f.baseURL, account.AccessToken, f.httpClient)
}
