// Package page loads the document a session runs against, from an http(s)
// URL or a local file.
package page

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"

	"github.com/chrisuehlinger/multiselect/dom"
	"github.com/chrisuehlinger/multiselect/html"
)

// ErrNotHTML is returned when a URL does not serve an HTML document.
var ErrNotHTML = errors.New("not an HTML document")

// Loader fetches and parses pages.
type Loader struct {
	client       *http.Client
	timeout      time.Duration
	maxRedirects int
	maxBytes     int64
	userAgent    string
	logger       *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithMaxRedirects sets the maximum number of redirects to follow.
func WithMaxRedirects(n int) Option {
	return func(l *Loader) {
		l.maxRedirects = n
	}
}

// WithMaxBytes caps the size of a page body.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		l.maxBytes = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(l *Loader) {
		l.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader with the given options.
func NewLoader(opts ...Option) (*Loader, error) {
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	l := &Loader{
		timeout:      30 * time.Second,
		maxRedirects: 10,
		maxBytes:     16 << 20,
		userAgent:    "multiselect/1.0",
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "page")

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	l.client = &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   l.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= l.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", l.maxRedirects)
			}
			return nil
		},
	}
	return l, nil
}

// Load parses the page at src. http and https URLs are fetched; file URLs
// and plain paths are read from disk. The document URL is the final URL
// after redirects, or the file URL of the absolute path.
func (l *Loader) Load(ctx context.Context, src string) (*dom.Document, error) {
	u, err := url.Parse(src)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return l.fetch(ctx, src)
		case "file":
			return l.readFile(u.Path)
		}
	}
	return l.readFile(src)
}

func (l *Loader) fetch(ctx context.Context, src string) (*dom.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.1")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch %s: %s", src, resp.Status)
	}
	contentType := resp.Header.Get("Content-Type")
	if !IsHTMLContentType(contentType) {
		return nil, fmt.Errorf("%w: %s serves %q", ErrNotHTML, src, contentType)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	doc, err := l.parse(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	doc.SetURL(resp.Request.URL.String())
	l.logger.Debug("page fetched", "url", doc.URL(), "status", resp.StatusCode)
	return doc, nil
}

func (l *Loader) readFile(path string) (*dom.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := l.parse(f, "")
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", abs, err)
	}
	doc.SetURL((&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String())
	return doc, nil
}

// parse decodes r to UTF-8, using the content type's charset or sniffing
// the document when there is none, and parses it.
func (l *Loader) parse(r io.Reader, contentType string) (*dom.Document, error) {
	utf8Body, err := charset.NewReader(io.LimitReader(r, l.maxBytes), contentType)
	if err != nil {
		return nil, err
	}
	return html.ParseReader(utf8Body)
}

// IsHTMLContentType reports whether contentType names an HTML document. An
// empty content type is accepted.
func IsHTMLContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	mediaType = strings.ToLower(mediaType)
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
