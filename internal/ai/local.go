package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// local speaks the minimal embedding sidecar protocol:
// POST {base_url}/embed {"text": ...} -> {"vector": [...]}.

type localEmbedConfig struct {
	BaseURL string `json:"base_url"`
}

type localEmbedProvider struct {
	baseURL string
}

type localEmbedRequest struct {
	Text string `json:"text"`
}

type localEmbedResponse struct {
	Vector []float32 `json:"vector"`
}

func (p *localEmbedProvider) Name() string {
	return "local"
}

func (p *localEmbedProvider) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	endpoint := strings.TrimRight(p.baseURL, "/") + "/embed"
	data, err := json.Marshal(localEmbedRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out localEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Vector) == 0 {
		return nil, fmt.Errorf("embed response has no vector")
	}
	return out.Vector, nil
}

func createLocalEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &localEmbedConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("embedding.base_url is required for local provider")
	}
	return &localEmbedProvider{baseURL: baseURL}, nil
}

func init() {
	RegisterEmbed("local", createLocalEmbedFactory)
}
