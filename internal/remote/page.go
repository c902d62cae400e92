package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/starford/favshelf/internal/models"
)

// Page is a browser tab on an album page, driven through the bridge.
type Page struct {
	c   *Client
	tab string
}

// Page opens the browser tab of albumURL on the bridge.
func (c *Client) Page(ctx context.Context, albumURL string) (*Page, error) {
	var resp struct {
		Tab string `json:"tab"`
	}
	q := url.Values{"url": {albumURL}}
	if err := c.doJSON(ctx, http.MethodPost, "/page/open?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("remote: open page: %w", err)
	}
	if resp.Tab == "" {
		return nil, fmt.Errorf("remote: open page: bridge returned no tab")
	}
	return &Page{c: c, tab: resp.Tab}, nil
}

// VisibleNotes returns the notes rendered in the tab.
func (p *Page) VisibleNotes(ctx context.Context) ([]models.NoteRecord, error) {
	var notes []models.NoteRecord
	if err := p.c.doJSON(ctx, http.MethodGet, p.path("notes", nil), &notes); err != nil {
		return nil, fmt.Errorf("remote: visible notes: %w", err)
	}
	return notes, nil
}

// ScrollBy scrolls the tab down by dy pixels.
func (p *Page) ScrollBy(ctx context.Context, dy int) error {
	if err := p.c.doJSON(ctx, http.MethodPost, p.path("scroll", url.Values{"dy": {strconv.Itoa(dy)}}), nil); err != nil {
		return fmt.Errorf("remote: scroll: %w", err)
	}
	return nil
}

// ContentExtent returns the scroll height of the tab.
func (p *Page) ContentExtent(ctx context.Context) (int, error) {
	var resp struct {
		Extent int `json:"extent"`
	}
	if err := p.c.doJSON(ctx, http.MethodGet, p.path("extent", nil), &resp); err != nil {
		return 0, fmt.Errorf("remote: extent: %w", err)
	}
	return resp.Extent, nil
}

// Close releases the tab.
func (p *Page) Close(ctx context.Context) error {
	return p.c.doJSON(ctx, http.MethodDelete, p.path("", nil), nil)
}

func (p *Page) path(op string, q url.Values) string {
	s := "/page/" + url.PathEscape(p.tab)
	if op != "" {
		s += "/" + op
	}
	if len(q) > 0 {
		s += "?" + q.Encode()
	}
	return s
}

func (c *Client) doJSON(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	if out == nil || buf.Len() == 0 {
		return nil
	}
	return json.Unmarshal(buf.Bytes(), out)
}
