package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"subgen/internal/encoder"
	"subgen/internal/logging"
	"subgen/internal/services"
)

const (
	defaultBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel         = "gemini-2.5-flash"
	healthCheckTimeout   = 15 * time.Second
	maxErrorBodyBytes    = 4 << 10
	maxSnippetLength     = 200
	apiKeyHeader         = "x-goog-api-key"
	streamMethodSuffix   = ":streamGenerateContent"
	transcriptPartPrefix = "Transcript:\n"
)

// Config captures the runtime settings required to talk to the model.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	// TimeoutSeconds bounds the whole request including the streamed body.
	// Zero leaves it unbounded.
	TimeoutSeconds int
}

// Client wraps the Gemini streamGenerateContent endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	var timeout time.Duration
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimPrefix(strings.TrimSpace(cfg.Model), "models/"),
			Temperature:    cfg.Temperature,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	client.logger = logging.NewComponentLogger(client.logger, "gemini")
	return client
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Request is one subtitle generation call.
type Request struct {
	Prompt     string
	Transcript string
	Audio      encoder.AudioPayload
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, summarizePayloadSnippet(e.Body))
}

// StatusCode extracts the HTTP status from a failed request, or 0 when the
// failure happened before a response arrived.
func StatusCode(err error) int {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// Stream issues the request and yields response text as it arrives. Any
// failure is yielded once as an ErrTransport-marked error, after which the
// sequence ends. Stopping iteration early closes the connection.
func (c *Client) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		body, err := c.open(ctx, req)
		if err != nil {
			yield("", services.Wrap(services.ErrTransport, "gemini", "stream", "open request", err))
			return
		}
		defer body.Close()

		events := newEventReader(body)
		for {
			data, err := events.next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", services.Wrap(services.ErrTransport, "gemini", "stream", "read events", err))
				return
			}
			text, err := decodeChunk(data)
			if err != nil {
				yield("", services.Wrap(services.ErrTransport, "gemini", "stream", "decode event", err))
				return
			}
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func (c *Client) open(ctx context.Context, req Request) (io.ReadCloser, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt required")
	}
	if strings.TrimSpace(req.Audio.Data) == "" {
		return nil, errors.New("audio payload required")
	}
	endpoint, err := c.endpoint(streamMethodSuffix)
	if err != nil {
		return nil, err
	}
	query := endpoint.Query()
	query.Set("alt", "sse")
	endpoint.RawQuery = query.Encode()

	encoded, err := json.Marshal(c.buildPayload(req))
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set(apiKeyHeader, c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("gemini request issued",
		logging.String("model", c.cfg.Model),
		logging.String("mime_type", req.Audio.MIMEType),
		logging.Int64("audio_bytes", int64(req.Audio.Size)),
		logging.Int("transcript_chars", len(req.Transcript)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp.Body, nil
}

// HealthCheck verifies the API key and model by fetching the model resource.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("gemini health: api key required")
	}
	endpoint, err := c.endpoint("")
	if err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("gemini health: new request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini health: http error: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("gemini health: %w", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}
	var model struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &model); err != nil {
		return fmt.Errorf("gemini health: decode model: %w", err)
	}
	if !strings.HasSuffix(model.Name, c.cfg.Model) {
		return fmt.Errorf("gemini health: unexpected model %q", model.Name)
	}
	return nil
}

func (c *Client) endpoint(method string) (*url.URL, error) {
	raw, err := url.JoinPath(c.cfg.BaseURL, "models", c.cfg.Model+method)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	return parsed, nil
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

func (c *Client) buildPayload(req Request) generateRequest {
	return generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: req.Prompt},
				{InlineData: &inlineData{MIMEType: req.Audio.MIMEType, Data: req.Audio.Data}},
				{Text: transcriptPartPrefix + req.Transcript},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      c.cfg.Temperature,
			ResponseMIMEType: "text/plain",
		},
	}
}

type streamResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text    string `json:"text"`
				Thought bool   `json:"thought"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// decodeChunk extracts the text carried by one event. Only the first
// candidate is read; thought parts are skipped.
func decodeChunk(data []byte) (string, error) {
	var resp streamResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode chunk %s: %w", summarizePayloadSnippet(string(data)), err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("api error %d %s: %s", resp.Error.Code, resp.Error.Status, strings.TrimSpace(resp.Error.Message))
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// eventReader splits a text/event-stream body into event payloads. Multiple
// data lines in one event are joined with newlines; other fields are ignored.
type eventReader struct {
	r *bufio.Reader
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{r: bufio.NewReaderSize(r, 64<<10)}
}

func (e *eventReader) next() ([]byte, error) {
	var data []byte
	hasData := false
	for {
		line, err := e.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		eof := errors.Is(err, io.EOF)
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if hasData {
				return data, nil
			}
			if eof {
				return nil, io.EOF
			}
			continue
		}
		if value, ok := strings.CutPrefix(line, "data:"); ok {
			value = strings.TrimPrefix(value, " ")
			if hasData {
				data = append(data, '\n')
			}
			data = append(data, value...)
			hasData = true
		}
		if eof {
			if hasData {
				return data, nil
			}
			return nil, io.EOF
		}
	}
}

func summarizePayloadSnippet(payload string) string {
	payload = strings.Join(strings.Fields(payload), " ")
	if payload == "" {
		return "<empty>"
	}
	if len(payload) > maxSnippetLength {
		payload = payload[:maxSnippetLength] + "..."
	}
	return payload
}
