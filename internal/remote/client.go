// Package remote is the HTTP client of the scraping bridge that resolves note
// details and serves media downloads.
package remote

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

	"github.com/starford/favshelf/internal/identity"
	"github.com/starford/favshelf/internal/models"
)

const (
	// maxMediaBytes bounds a single media download.
	maxMediaBytes = 512 << 20
	// maxDetailBytes bounds a note detail response.
	maxDetailBytes = 8 << 20
)

// ErrTooLarge is returned when a response body exceeds its size limit.
var ErrTooLarge = errors.New("remote: response too large")

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the bridge at a base URL.
type Client struct {
	baseURL    string
	client     HTTPDoer
	mediaLimit int64
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP backend.
func WithHTTPClient(c HTTPDoer) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithMediaLimit caps the size of a media download.
func WithMediaLimit(n int64) Option {
	return func(cl *Client) {
		cl.mediaLimit = n
	}
}

// New returns a bridge client. timeout applies to the default HTTP backend.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: timeout},
		mediaLimit: maxMediaBytes,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NoteDetail fetches the detail of the note id. A nil detail with a nil
// error means the bridge knows no such note.
func (c *Client) NoteDetail(ctx context.Context, id string, tok identity.Token) (*models.Detail, error) {
	q := url.Values{}
	q.Set("note_id", id)
	q.Set("xsec_token", tok.Token)
	q.Set("xsec_source", tok.Source)

	body, status, err := c.get(ctx, c.baseURL+"/note?"+q.Encode(), maxDetailBytes)
	if err != nil {
		return nil, fmt.Errorf("remote: note %s: %w", id, err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("remote: note %s: unexpected status %d: %s", id, status, strings.TrimSpace(string(body)))
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var d models.Detail
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return nil, fmt.Errorf("remote: note %s: decode: %w", id, err)
	}
	return &d, nil
}

// Media downloads the resource at rawURL.
func (c *Client) Media(ctx context.Context, rawURL string) ([]byte, error) {
	body, status, err := c.get(ctx, rawURL, c.mediaLimit)
	if err != nil {
		return nil, fmt.Errorf("remote: media: %w", err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("remote: media: unexpected status %d", status)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, u string, limit int64) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json, */*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if int64(len(data)) > limit {
		return nil, resp.StatusCode, fmt.Errorf("%w: more than %d bytes from %s", ErrTooLarge, limit, u)
	}
	return data, resp.StatusCode, nil
}
