package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/naka-gawa/agentic-pr-study/internal/domain"
	"golang.org/x/oauth2"
)

// HTTPOpener fetches tables relative to a base URL.
type HTTPOpener struct {
	baseURL string
	client  *http.Client
}

// NewHTTPOpener creates an opener for baseURL. A non-empty token is sent as a bearer token.
func NewHTTPOpener(baseURL, token string) *HTTPOpener {
	client := &http.Client{}
	if token != "" {
		client.Transport = &oauth2.Transport{
			Base:   http.DefaultTransport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}
	}
	return &HTTPOpener{baseURL: baseURL, client: client}
}

func (h *HTTPOpener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	u, err := url.JoinPath(h.baseURL, name)
	if err != nil {
		return nil, fmt.Errorf("failed to build url for %s: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", u, err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", domain.ErrSourceUnavailable, u, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: %s", domain.ErrSourceUnavailable, u, resp.Status)
	}
	return resp.Body, nil
}
