// Package espn fetches play-by-play feed documents for a game.
//
// The public play-by-play page embeds the feed as a script assignment:
//
//	window['__espnfitt__'] = { "page": { ... } };
//
// Fetch returns the JSON on the right-hand side. Endpoints that answer with
// JSON directly are passed through untouched.
package espn

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/time/rate"

	"github.com/okian/touchdown/pkg/logger"
	"github.com/okian/touchdown/pkg/metrics"
)

// Defaults for the public play-by-play site.
const (
	DefaultBaseURL = "https://www.espn.com/nfl/playbyplay/_/gameId/"
	DefaultTimeout = 10 * time.Second
	DefaultRPS     = 2.0

	maxBodyBytes = 16 << 20
)

var documentMarker = []byte("window['__espnfitt__']")

// Client is a rate-limited feed fetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	userAgent  string
	logger     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the URL prefix the game id is appended to.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps requests per second across all games.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its timeout is kept.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client with the public site defaults.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRPS), 1),
		userAgent:  "touchdown/1.0",
		logger:     logger.Get().Named("espn"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the feed document for gameID.
func (c *Client) Fetch(ctx context.Context, gameID string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.RecordFeedFetchLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordFeedFetchError("rate_limit")
		return nil, errors.Mark(errors.Wrap(err, "rate limit wait"), ErrFetch)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+gameID, nil)
	if err != nil {
		metrics.RecordFeedFetchError("request")
		return nil, errors.Mark(errors.Wrap(err, "create request"), ErrFetch)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordFeedFetchError("transport")
		return nil, errors.Mark(errors.Wrapf(err, "game %s", gameID), ErrFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordFeedFetchError("status_" + strconv.Itoa(resp.StatusCode))
		return nil, errors.Wrapf(ErrStatus, "game %s: %d", gameID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.RecordFeedFetchError("read")
		return nil, errors.Mark(errors.Wrapf(err, "read game %s", gameID), ErrFetch)
	}

	if isJSON(resp.Header.Get("Content-Type"), body) {
		return body, nil
	}
	doc, err := ExtractDocument(body)
	if err != nil {
		metrics.RecordFeedFetchError("no_document")
		c.logger.Warn(ctx, "feed page has no embedded document",
			logger.String("game_id", gameID),
			logger.Int("bytes", len(body)),
		)
		return nil, errors.Wrapf(err, "game %s", gameID)
	}
	return doc, nil
}

func isJSON(contentType string, body []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/json" {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// ExtractDocument finds the script carrying the feed assignment in page and
// returns the assigned JSON object.
func ExtractDocument(page []byte) ([]byte, error) {
	z := html.NewTokenizer(bytes.NewReader(page))
	inScript := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return nil, ErrNoDocument
			}
			return nil, errors.Mark(z.Err(), ErrNoDocument)
		case html.StartTagToken:
			name, _ := z.TagName()
			inScript = atom.Lookup(name) == atom.Script
		case html.EndTagToken:
			inScript = false
		case html.TextToken:
			if !inScript {
				continue
			}
			if doc, ok := assignment(z.Text()); ok {
				return doc, nil
			}
		}
	}
}

// assignment returns the right-hand side of the feed assignment in script,
// without the trailing semicolon.
func assignment(script []byte) ([]byte, bool) {
	at := bytes.Index(script, documentMarker)
	if at < 0 {
		return nil, false
	}
	rest := script[at+len(documentMarker):]
	eq := bytes.IndexByte(rest, '=')
	if eq < 0 {
		return nil, false
	}
	rhs := bytes.TrimSpace(rest[eq+1:])
	rhs = bytes.TrimSpace(bytes.TrimSuffix(rhs, []byte(";")))
	if len(rhs) == 0 || rhs[0] != '{' {
		return nil, false
	}
	return rhs, true
}
