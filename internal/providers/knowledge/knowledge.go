// Package knowledge performs semantic search over the agricultural corpus via
// Cloudflare Workers AI embeddings and a Vectorize index.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/deep-ag/copilot/internal/agent/model"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

const (
	embeddingModel = "@cf/baai/bge-base-en-v1.5"
	defaultTopK    = 5
)

// Config identifies the Cloudflare account and Vectorize index. When
// AccountID or APIToken are blank the searcher is disabled and every query
// returns an empty result set.
type Config struct {
	AccountID string        `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	APIToken  string        `envconfig:"CLOUDFLARE_API_TOKEN"`
	IndexName string        `envconfig:"CLOUDFLARE_VECTORIZE_INDEX" default:"agri-knowledge"`
	BaseURL   string        `envconfig:"CLOUDFLARE_BASE_URL" default:"https://api.cloudflare.com/client/v4"`
	Timeout   time.Duration `envconfig:"KNOWLEDGE_TIMEOUT" default:"60s"`
}

// Client is a Cloudflare backed model.KnowledgeSearcher.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudflare.com/client/v4"
	}
	if cfg.IndexName == "" {
		cfg.IndexName = "agri-knowledge"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.AccountID == "" || cfg.APIToken == "" {
		logx.Warn().Msg("cloudflare credentials not set, knowledge search disabled")
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// enabled reports whether the client has credentials to call Cloudflare.
func (c *Client) enabled() bool {
	return c.cfg.AccountID != "" && c.cfg.APIToken != ""
}

type embeddingResponse struct {
	Result struct {
		Data [][]float64 `json:"data"`
	} `json:"result"`
}

type queryRequest struct {
	Vector         []float64      `json:"vector"`
	TopK           int            `json:"topK"`
	ReturnMetadata string         `json:"returnMetadata"`
	ReturnValues   bool           `json:"returnValues"`
	Filter         map[string]any `json:"filter,omitempty"`
}

type queryResponse struct {
	Result struct {
		Matches []struct {
			Score    float64 `json:"score"`
			Metadata struct {
				Text   string `json:"text"`
				Source string `json:"source"`
				Page   int    `json:"page"`
			} `json:"metadata"`
		} `json:"matches"`
	} `json:"result"`
}

// SearchKnowledge embeds the query, runs a top-K similarity search and maps
// the matches. A non-empty crop constrains matches to that crop's documents.
// Missing credentials or a missing index degrade to an empty result set.
func (c *Client) SearchKnowledge(ctx context.Context, query, crop string) ([]model.SearchResult, error) {
	if !c.enabled() {
		return nil, nil
	}

	vector, err := c.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	req := queryRequest{
		Vector:         vector,
		TopK:           defaultTopK,
		ReturnMetadata: "all",
	}
	if crop != "" && crop != model.CropUnknown {
		req.Filter = map[string]any{"crop": map[string]any{"$eq": crop}}
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/vectorize/v2/indexes/%s/query",
		c.cfg.BaseURL, c.cfg.AccountID, c.cfg.IndexName)

	var resp queryResponse
	status, err := c.postJSON(ctx, endpoint, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	// 404 means the index has not been created yet; treat as no knowledge.
	if status == http.StatusNotFound {
		logx.Debug().Str("index", c.cfg.IndexName).Msg("vectorize index not found")
		return nil, nil
	}

	results := make([]model.SearchResult, 0, len(resp.Result.Matches))
	for _, m := range resp.Result.Matches {
		source := m.Metadata.Source
		if source == "" {
			source = "Unknown"
		}
		results = append(results, model.SearchResult{
			Text:   m.Metadata.Text,
			Source: source,
			Page:   m.Metadata.Page,
			Score:  m.Score,
		})
	}
	return results, nil
}

func (c *Client) embed(ctx context.Context, text string) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.cfg.BaseURL, c.cfg.AccountID, embeddingModel)

	var resp embeddingResponse
	status, err := c.postJSON(ctx, endpoint, map[string]any{"text": []string{text}}, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", status)
	}
	if len(resp.Result.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Result.Data[0], nil
}

// postJSON returns the HTTP status alongside the decoded body so callers can
// special-case statuses like 404 without string matching.
func (c *Client) postJSON(ctx context.Context, endpoint string, in, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
}

var _ model.KnowledgeSearcher = (*Client)(nil)
