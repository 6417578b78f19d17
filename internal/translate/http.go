package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient talks to a LibreTranslate-compatible endpoint
// (POST /translate with {q, source, target}).
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

// NewHTTPClient creates a translation client for the given base URL. The
// per-call timeout is enforced by the caller's context; the client timeout is
// a backstop against connections that never complete.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
	c.http = resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0) // per-row calls are retry-free; backoff is the consumer's concern
	return c
}

type translateRequest struct {
	Query  string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// Translate implements the Translator interface.
func (c *HTTPClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	var out translateResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(translateRequest{
			Query:  text,
			Source: sourceLang,
			Target: targetLang,
			Format: "text",
			APIKey: c.apiKey,
		}).
		SetResult(&out).
		SetError(&out).
		Post(c.baseURL + "/translate")
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("translate request: %s", msg)
	}

	if strings.TrimSpace(out.TranslatedText) == "" {
		return "", ErrEmptyResult
	}
	return out.TranslatedText, nil
}

var _ Translator = (*HTTPClient)(nil)
