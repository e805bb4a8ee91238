package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docask/internal/ai"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
)

const (
	defaultDimension    = 384
	defaultTimeout      = 5 * time.Second
	defaultAttempts     = 3
	defaultInitialDelay = 1 * time.Second
)

type Config struct {
	Dimension    int
	Timeout      time.Duration
	Attempts     int
	InitialDelay time.Duration
}

// Client converts text into a fixed-dimension vector through the configured
// embedding provider. Transient failures are retried with doubling delay;
// a dimension mismatch is terminal and never retried.
type Client struct {
	embedder ai.IEmbedder
	cfg      Config
}

func NewClient(embedder ai.IEmbedder, cfg Config) *Client {
	if cfg.Dimension <= 0 {
		cfg.Dimension = defaultDimension
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultInitialDelay
	}
	return &Client{embedder: embedder, cfg: cfg}
}

func (c *Client) Dimension() int {
	return c.cfg.Dimension
}

func (c *Client) ModelName() string {
	return c.embedder.ModelName()
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", appErr.ErrInvalidQuery)
	}
	logger := logutil.GetLogger(ctx)
	delay := c.cfg.InitialDelay
	var lastErr error
	for attempt := 0; attempt < c.cfg.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingUnavailable, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
		vec, err := c.embedOnce(ctx, text)
		if err == nil {
			return vec, nil
		}
		if errors.Is(err, appErr.ErrEmbeddingUnavailable) {
			// dimension mismatch, already terminal
			return nil, err
		}
		lastErr = err
		logger.Warn("embedding attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.cfg.Attempts),
			zap.Error(err),
		)
	}
	return nil, fmt.Errorf("%w: %d attempts failed: %v", appErr.ErrEmbeddingUnavailable, c.cfg.Attempts, lastErr)
}

func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	vec, err := c.embedder.Embed(callCtx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != c.cfg.Dimension {
		return nil, fmt.Errorf("%w: dimension mismatch: got %d, want %d",
			appErr.ErrEmbeddingUnavailable, len(vec), c.cfg.Dimension)
	}
	return vec, nil
}

// Ping issues a single short embedding call without retries. Used by the
// health probe.
func (c *Client) Ping(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	if _, err := c.embedder.Embed(callCtx, "ping"); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrEmbeddingUnavailable, err)
	}
	return nil
}
