package generation

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
	defaultTimeout   = 10 * time.Second
	defaultMaxTokens = 1024

	// Kept low so repeated questions over identical context produce
	// consistent output.
	defaultTemperature = 0.1
)

type Config struct {
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client drives the text-generation engine. A deadline on the engine call
// gets exactly one retry; a second timeout surfaces as GenerationTimeout,
// everything else as GenerationUnavailable.
type Client struct {
	gen ai.IGenerator
	cfg Config
}

func NewClient(gen ai.IGenerator, cfg Config) *Client {
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{gen: gen, cfg: cfg}
}

func (c *Client) ModelID() string {
	return c.gen.ModelID()
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	logger := logutil.GetLogger(ctx)
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		text, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			lastErr = err
			logger.Warn("generation timed out", zap.Int("attempt", attempt+1))
			continue
		}
		if errors.Is(err, ai.ErrUnavailable) {
			return "", fmt.Errorf("%w: %v", appErr.ErrGenerationUnavailable, err)
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", appErr.ErrGenerationTimeout, ctx.Err())
		}
		return "", fmt.Errorf("%w: %v", appErr.ErrGenerationUnavailable, err)
	}
	return "", fmt.Errorf("%w: %v", appErr.ErrGenerationTimeout, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	text, err := c.gen.Generate(callCtx, prompt, ai.GenerateOptions{
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("empty generation response")
	}
	return text, nil
}

// Ping issues a minimal single-token generation to verify the engine is
// loaded and reachable.
func (c *Client) Ping(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	if _, err := c.gen.Generate(callCtx, "ping", ai.GenerateOptions{Temperature: c.cfg.Temperature, MaxTokens: 1}); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrGenerationUnavailable, err)
	}
	return nil
}
