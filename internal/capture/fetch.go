package capture

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// FetchOptions tune WebFetch actions. The zero value performs a plain GET
// and returns the whole body.
type FetchOptions struct {
	Client    *http.Client
	UserAgent string
	// Timeout bounds one fetch; zero means no limit.
	Timeout time.Duration
	// MaxBytes truncates the body; zero means no limit.
	MaxBytes int64
	// HTMLToText renders text/html bodies as readable plain text.
	HTMLToText bool
}

// normalizeURL gives scheme-less tokens such as "example.com/x" an https
// scheme.
func normalizeURL(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

// fetchText GETs rawURL and returns its body decoded to UTF-8 along with
// the response status.
func fetchText(ctx context.Context, client *http.Client, rawURL string, opts FetchOptions) (string, int, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	target := normalizeURL(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if opts.MaxBytes > 0 {
		body = io.LimitReader(body, opts.MaxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	decoded, err := charset.NewReader(body, contentType)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("fetch %s: decode body: %w", rawURL, err)
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("fetch %s: read body: %w", rawURL, err)
	}

	text := string(data)
	if opts.HTMLToText && isHTML(contentType) {
		text = htmlToText(text)
	}
	return text, resp.StatusCode, nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
