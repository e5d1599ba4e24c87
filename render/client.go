package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	viewport "github.com/marben/mandel_viewport"
)

const DefaultMaxImageBytes = 32 << 20

var (
	ErrBadStatus = errors.New("unexpected status")
	ErrNotImage  = errors.New("response is not an image")
)

// Client posts render requests to a render endpoint. It implements viewport.Renderer.
type Client struct {
	endpoint string
	hc       *http.Client
	maxBytes int64
}

type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient. Its redirect policy is kept as is.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

func WithMaxImageBytes(n int64) ClientOption {
	return func(c *Client) { c.maxBytes = n }
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		hc:       http.DefaultClient,
		maxBytes: DefaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ viewport.Renderer = (*Client)(nil)

// Render sends p as a form and returns the image bytes with their content type.
// Redirects are followed.
func (c *Client) Render(ctx context.Context, p viewport.Payload) ([]byte, string, error) {
	form := url.Values{}
	form.Set("x", p.X)
	form.Set("y", p.Y)
	form.Set("w", p.W)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", fmt.Errorf("render: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("render: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, "", fmt.Errorf("render: %w %s: %s", ErrBadStatus, resp.Status, bytes.TrimSpace(excerpt))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("render: read body: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, "", fmt.Errorf("render: image larger than %d bytes", c.maxBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("render: empty body: %w", ErrNotImage)
	}

	contentType := imageContentType(resp.Header.Get("Content-Type"), data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("render: content type %q: %w", contentType, ErrNotImage)
	}
	return data, contentType, nil
}

// imageContentType returns the media type from header, sniffing data when
// the header is missing or generic.
func imageContentType(header string, data []byte) string {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil || mediaType == "" || mediaType == "application/octet-stream" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	return mediaType
}
