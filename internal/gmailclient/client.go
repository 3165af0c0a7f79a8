// Package gmailclient retrieves messages over the Gmail REST API using an
// authenticated session. Responses are decoded into the generated API types
// and converted to domain messages.
package gmailclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// listPageSize is the per-page cap the API accepts for message listing.
const listPageSize = 100

// Requester is the authenticated transport the client issues calls through.
type Requester interface {
	GetJSON(ctx context.Context, url string, out any) error
}

// SearchQuery describes a mailbox search. Zero-value fields are omitted
// from the generated query string.
type SearchQuery struct {
	From          string
	Subject       string
	Label         string
	After         time.Time
	Before        time.Time
	HasAttachment bool
	RawQuery      string // appended verbatim
}

// String renders the query in Gmail search syntax.
func (q SearchQuery) String() string {
	var parts []string
	if q.From != "" {
		parts = append(parts, "from:"+q.From)
	}
	if q.Subject != "" {
		parts = append(parts, fmt.Sprintf("subject:%q", q.Subject))
	}
	if q.Label != "" {
		parts = append(parts, "label:"+q.Label)
	}
	if !q.After.IsZero() {
		parts = append(parts, "after:"+q.After.Format("2006/01/02"))
	}
	if !q.Before.IsZero() {
		parts = append(parts, "before:"+q.Before.Format("2006/01/02"))
	}
	if q.HasAttachment {
		parts = append(parts, "has:attachment")
	}
	if q.RawQuery != "" {
		parts = append(parts, q.RawQuery)
	}
	return strings.Join(parts, " ")
}

// Client lists and fetches Gmail messages for the authenticated user.
type Client struct {
	requester Requester
	baseURL   string
	batchSize int
	log       *zap.Logger
}

// New builds a client. batchSize bounds concurrent message fetches; values
// below 1 fall back to a conservative default.
func New(requester Requester, batchSize int, log *zap.Logger) *Client {
	if batchSize < 1 {
		batchSize = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		requester: requester,
		baseURL:   defaultBaseURL,
		batchSize: batchSize,
		log:       log,
	}
}

// SetBaseURL overrides the API endpoint. Mainly for tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimRight(u, "/") }

// Search lists message references matching the query, following pagination
// until maxResults references are collected or the listing is exhausted.
func (c *Client) Search(ctx context.Context, query SearchQuery, maxResults int) ([]domain.MessageRef, error) {
	if maxResults < 1 {
		maxResults = 50
	}

	q := query.String()
	c.log.Debug("searching mailbox",
		zap.String("component", "gmailclient"),
		zap.String("query", q),
		zap.Int("maxResults", maxResults))

	var refs []domain.MessageRef
	pageToken := ""
	for {
		remaining := maxResults - len(refs)
		if remaining <= 0 {
			break
		}
		pageSize := remaining
		if pageSize > listPageSize {
			pageSize = listPageSize
		}

		params := url.Values{}
		if q != "" {
			params.Set("q", q)
		}
		params.Set("maxResults", fmt.Sprint(pageSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page gmail.ListMessagesResponse
		endpoint := c.baseURL + "/users/me/messages?" + params.Encode()
		if err := c.requester.GetJSON(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("could not list messages: %w", err)
		}

		for _, m := range page.Messages {
			refs = append(refs, domain.MessageRef{ID: m.Id, ThreadID: m.ThreadId})
			if len(refs) >= maxResults {
				break
			}
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.log.Info("mailbox search complete",
		zap.String("component", "gmailclient"),
		zap.Int("found", len(refs)))
	return refs, nil
}

// GetMessage fetches one message in full format and converts it.
func (c *Client) GetMessage(ctx context.Context, id string) (*domain.InboundMessage, error) {
	endpoint := fmt.Sprintf("%s/users/me/messages/%s?format=full", c.baseURL, url.PathEscape(id))

	var msg gmail.Message
	if err := c.requester.GetJSON(ctx, endpoint, &msg); err != nil {
		return nil, fmt.Errorf("could not fetch message %s: %w", id, err)
	}
	return convertMessage(&msg), nil
}
