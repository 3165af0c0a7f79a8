package gmailclient

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

// FetchAll retrieves full messages for the given references with at most
// batchSize fetches in flight. A failed fetch is logged and its slot
// dropped; the survivors come back in reference order. The returned slice
// may therefore be shorter than refs.
func (c *Client) FetchAll(ctx context.Context, refs []domain.MessageRef) ([]*domain.InboundMessage, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	results := make([]*domain.InboundMessage, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.batchSize)
	for i, ref := range refs {
		g.Go(func() error {
			msg, err := c.GetMessage(gctx, ref.ID)
			if err != nil {
				c.log.Warn("skipping message that failed to fetch",
					zap.String("component", "gmailclient"),
					zap.String("messageId", ref.ID),
					zap.Error(err))
				return nil
			}
			results[i] = msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fetched := make([]*domain.InboundMessage, 0, len(refs))
	for _, msg := range results {
		if msg != nil {
			fetched = append(fetched, msg)
		}
	}

	if dropped := len(refs) - len(fetched); dropped > 0 {
		c.log.Info("batch fetch finished with failures",
			zap.String("component", "gmailclient"),
			zap.Int("fetched", len(fetched)),
			zap.Int("dropped", dropped))
	}
	return fetched, nil
}
