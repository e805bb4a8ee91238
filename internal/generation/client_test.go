package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docask/internal/ai"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
)

type fakeGenerator struct {
	texts []string
	errs  []error
	block []bool
	calls int
	opts  []ai.GenerateOptions
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	idx := f.calls
	f.calls++
	f.opts = append(f.opts, opts)
	if idx < len(f.block) && f.block[idx] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.texts) {
		return f.texts[idx], nil
	}
	return "", errors.New("exhausted")
}

func (f *fakeGenerator) ModelID() string {
	return "fake/model"
}

func testConfig() Config {
	return Config{
		Temperature: 0.1,
		MaxTokens:   128,
		Timeout:     30 * time.Millisecond,
	}
}

func TestGenerate_Success(t *testing.T) {
	fake := &fakeGenerator{texts: []string{"answer [a.pdf, one]"}}
	c := NewClient(fake, testConfig())
	text, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "answer [a.pdf, one]", text)
	require.Equal(t, float32(0.1), fake.opts[0].Temperature)
	require.Equal(t, 128, fake.opts[0].MaxTokens)
}

func TestGenerate_RetriesOnceAfterTimeout(t *testing.T) {
	fake := &fakeGenerator{
		block: []bool{true, false},
		texts: []string{"", "late answer"},
	}
	c := NewClient(fake, testConfig())
	text, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "late answer", text)
	require.Equal(t, 2, fake.calls)
}

func TestGenerate_SecondTimeoutSurfacesAsTimeout(t *testing.T) {
	fake := &fakeGenerator{block: []bool{true, true}}
	c := NewClient(fake, testConfig())
	_, err := c.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, appErr.ErrGenerationTimeout)
	require.Equal(t, 2, fake.calls)
}

func TestGenerate_UnavailableNotRetried(t *testing.T) {
	fake := &fakeGenerator{errs: []error{ai.ErrUnavailable}}
	c := NewClient(fake, testConfig())
	_, err := c.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, appErr.ErrGenerationUnavailable)
	require.Equal(t, 1, fake.calls)
}

func TestGenerate_EmptyResponseIsFailure(t *testing.T) {
	fake := &fakeGenerator{texts: []string{""}}
	c := NewClient(fake, testConfig())
	_, err := c.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, appErr.ErrGenerationUnavailable)
}

func TestPing_UsesSingleToken(t *testing.T) {
	fake := &fakeGenerator{texts: []string{"ok"}}
	c := NewClient(fake, testConfig())
	require.NoError(t, c.Ping(context.Background()))
	require.Equal(t, 1, fake.opts[0].MaxTokens)
}
