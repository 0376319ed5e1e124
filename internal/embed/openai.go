package embed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	goopenai "github.com/meguminnnnnnnnn/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "text-embedding-3-small"

// DefaultOpenAIBaseURL is used when no base URL is configured.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// DefaultMaxTokens is the input budget sent to a remote model per call.
const DefaultMaxTokens = 8000

// OpenAIConfig configures an OpenAI-compatible embedding endpoint.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string // empty selects DefaultOpenAIBaseURL
	Model     string
	MaxTokens int
}

// OpenAI embeds text through any OpenAI-compatible embeddings API.
type OpenAI struct {
	embedder  einoEmbedding.Embedder
	model     string
	maxTokens int
}

var _ Embedder = (*OpenAI)(nil)

func NewOpenAI(ctx context.Context, cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	e, err := openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: baseURL,
		Model:   model,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}
	return newOpenAIWith(e, model, maxTokens), nil
}

func newOpenAIWith(e einoEmbedding.Embedder, model string, maxTokens int) *OpenAI {
	return &OpenAI{embedder: e, model: model, maxTokens: maxTokens}
}

// Model returns the configured model name.
func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	vectors, err := o.embedder.EmbedStrings(ctx, []string{Truncate(text, o.maxTokens)})
	if err != nil {
		if ctx.Err() == nil && isTransient(err) {
			return nil, &RetryableError{Err: err}
		}
		return nil, fmt.Errorf("generate embedding: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("empty embedding returned")
	}

	out := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		out[i] = float32(v)
	}
	return out, nil
}

// statusRE finds the HTTP status in errors from clients that only report
// it as text.
var statusRE = regexp.MustCompile(`status code: (\d{3})`)

// isTransient reports whether a retry can help: rate limiting, server
// errors, timeouts and dropped connections.
func isTransient(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return transientStatus(reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	if m := statusRE.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return transientStatus(code)
	}
	return false
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
