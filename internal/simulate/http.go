package simulate

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/okian/touchdown/pkg/logger"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, target string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// feedSubmission is the wrapped body of POST /games/{gameID}/feed.
type feedSubmission struct {
	Document jsoniter.RawMessage `json:"document"`
	Roster   []RosterEntry       `json:"roster"`
}

// feedResponse is the part of the endpoint's response the simulator reads.
type feedResponse struct {
	Duplicates    int `json:"duplicates"`
	Notifications []struct {
		ID string `json:"id"`
	} `json:"notifications"`
}

// submitGames posts every game once with cfg.Workers concurrent workers.
func submitGames(ctx context.Context, cfg *Config, games []Game, pass string) PassResult {
	l := logger.Get().Named("simulate")
	l.Info(ctx, "submitting games", logger.String("pass", pass), logger.Int("games", len(games)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	var submitted, failed, notifications, duplicates int64

	gameChan := make(chan Game, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range gameChan {
				atomic.AddInt64(&submitted, 1)
				res, err := submitGame(ctx, client, cfg.BaseURL, g)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					l.Warn(ctx, "submission failed", logger.String("game_id", g.GameID), logger.Error(err))
					continue
				}
				atomic.AddInt64(&notifications, int64(len(res.Notifications)))
				atomic.AddInt64(&duplicates, int64(res.Duplicates))
				if cfg.Verbose {
					l.Info(ctx, "submitted game",
						logger.String("pass", pass),
						logger.String("game_id", g.GameID),
						logger.Int("notifications", len(res.Notifications)),
						logger.Int("duplicates", res.Duplicates))
				}
			}
		}()
	}

	go func() {
		defer close(gameChan)
		for _, g := range games {
			select {
			case <-ctx.Done():
				return
			case gameChan <- g:
			}
		}
	}()
	wg.Wait()

	return PassResult{
		Submitted:     int(submitted),
		Failed:        int(failed),
		Notifications: int(notifications),
		Duplicates:    int(duplicates),
	}
}

// submitGame posts one game's feed and decodes the response.
func submitGame(ctx context.Context, client *HTTPClient, baseURL string, g Game) (*feedResponse, error) {
	endpoint := baseURL + "/games/" + url.PathEscape(g.GameID) + "/feed"
	resp, err := client.Post(ctx, endpoint, feedSubmission{Document: g.Document, Roster: g.Roster})
	if err != nil {
		return nil, errors.Wrap(err, "post feed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode != StatusOK {
		return nil, errors.Newf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	var res feedResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return &res, nil
}
