package vicare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://api.viessmann-climatesolutions.com"

// Transport is the boundary to the network. The client never constructs or
// manages connections, sessions, headers or auth tokens itself; it only
// hands paths and bodies to a Transport and receives raw JSON back.
type Transport interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
}

// TokenSource supplies a valid bearer token for each request. Token
// acquisition and refresh live entirely behind this interface.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token on every call.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}

// HTTPTransport talks to the cloud API over HTTPS with bearer auth.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *log.Logger
}

func NewHTTPTransport(baseURL string, tokens TokenSource, timeout time.Duration, logger *log.Logger) *HTTPTransport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.New()
		logger.SetLevel(log.ErrorLevel)
	}
	return &HTTPTransport{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

func (t *HTTPTransport) Get(ctx context.Context, path string) ([]byte, error) {
	return t.do(ctx, http.MethodGet, path, nil)
}

func (t *HTTPTransport) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return t.do(ctx, http.MethodPost, path, body)
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	url := t.resolve(path)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: method, URL: url, Err: fmt.Errorf("encode request body: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &TransportError{Op: method, URL: url, Err: err}
	}
	token, err := t.tokens.Token(ctx)
	if err != nil {
		return nil, &TransportError{Op: method, URL: url, Err: fmt.Errorf("acquire token: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	t.logger.Debugf("vicare: %s %s", method, url)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: method, URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: method, URL: url, StatusCode: resp.StatusCode, Body: truncate(string(payload), 512)}
	}
	return payload, nil
}

// resolve passes absolute URIs through untouched. Command URIs arrive
// absolute from the server, everything else is relative to the base URL.
func (t *HTTPTransport) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return t.baseURL + path
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
