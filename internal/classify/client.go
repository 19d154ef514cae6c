package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/config"
)

// ErrNotConfigured is returned when the classification endpoint or model is
// missing. Nothing is read or written when this is surfaced.
var ErrNotConfigured = errors.New("classifier endpoint is not configured")

// Item is one distinct raw product name offered to the classifier. Price and
// ExternalID are representative values carried along as grouping signals.
type Item struct {
	Index      int      `json:"index"`
	Name       string   `json:"name"`
	Price      *float64 `json:"price,omitempty"`
	ExternalID *string  `json:"external_id,omitempty"`
}

// Client groups near-duplicate product names by calling an OpenAI-compatible
// chat-completions endpoint. The response is never trusted: it is validated
// as a strict index partition before use.
type Client struct {
	endpointURL string
	model       string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      zerolog.Logger
}

// NewClient builds a classifier client from configuration. Returns
// ErrNotConfigured when endpoint or model is missing.
func NewClient(cfg *config.Config, logger zerolog.Logger) (*Client, error) {
	if cfg == nil || !cfg.ClassifierConfigured() {
		return nil, ErrNotConfigured
	}

	timeout := cfg.ClassifierTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	rps := cfg.ClassifierRPS
	if rps <= 0 {
		rps = 1
	}

	return &Client{
		endpointURL: chatCompletionsURL(strings.TrimSpace(cfg.ClassifierEndpoint)),
		model:       strings.TrimSpace(cfg.ClassifierModel),
		apiKey:      strings.TrimSpace(cfg.ClassifierAPIKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}, nil
}

// Partition asks the classifier to group the given items. The returned
// partition references items by index; indices absent from every group were
// judged distinct. Malformed responses fail with ErrInvalidPartition and the
// raw response is logged for diagnosis.
func (c *Client) Partition(ctx context.Context, items []Item) ([][]int, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	if len(items) < 2 {
		return nil, fmt.Errorf("at least 2 items are required, got %d", len(items))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for classifier rate limit: %w", err)
	}

	prompt, err := buildGroupingPrompt(items)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal grouping request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build grouping request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send grouping request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read grouping response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errPayload chatErrorResponse
		if unmarshalErr := json.Unmarshal(respBody, &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				return nil, fmt.Errorf("classifier endpoint status %d: %s", resp.StatusCode, msg)
			}
		}
		return nil, fmt.Errorf("classifier endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode grouping response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("grouping response missing choices")
	}

	content := parsed.Choices[0].Message.Content
	payload, err := ExtractJSONArray(content)
	if err != nil {
		c.logger.Error().Str("response", content).Msg("classifier returned no partition payload")
		return nil, err
	}

	partition, err := ParsePartition([]byte(payload), len(items))
	if err != nil {
		c.logger.Error().Err(err).Str("response", content).Msg("classifier partition rejected")
		return nil, err
	}
	return partition, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

const groupingInstructions = `You are deduplicating product names extracted from live-commerce sales reports. The same physical product appears under slightly different spellings (OCR noise, typos, truncation).

Group the numbered items below so that each group contains indices of entries that are certainly the same product. Rules, in priority order:
1. Identical external_id means the same product; always group them.
2. Different external_id values must NEVER be grouped.
3. Prices differing by more than 30% must NEVER be grouped.
4. Distinguishing model or spec tokens (wattage, capacity, screen size, brand, voltage) mark different products; never group across them.
5. When in doubt, do NOT group. Leaving duplicates apart is acceptable; merging distinct products is not.

Respond with ONLY a JSON array of arrays of item indices, for example [[0,3],[1]]. Indices you omit are treated as ungrouped. No explanations.

Items:
`

func buildGroupingPrompt(items []Item) (string, error) {
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal grouping items: %w", err)
	}
	return groupingInstructions + string(payload), nil
}

func chatCompletionsURL(endpoint string) string {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return endpoint
	}

	path := strings.TrimRight(parsed.Path, "/")
	switch {
	case strings.HasSuffix(path, "/chat/completions"):
		parsed.Path = path
	case strings.HasSuffix(path, "/v1"):
		parsed.Path = path + "/chat/completions"
	case path == "":
		parsed.Path = "/v1/chat/completions"
	default:
		parsed.Path = path + "/v1/chat/completions"
	}

	return parsed.String()
}
