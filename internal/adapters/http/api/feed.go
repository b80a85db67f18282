package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/okian/touchdown/internal/adapters/roster"
	service "github.com/okian/touchdown/internal/app"
	"github.com/okian/touchdown/internal/domain/feed"
	"github.com/okian/touchdown/internal/domain/model"
)

// FeedDependencies is what the feed endpoint needs from the service.
type FeedDependencies interface {
	Ingest(ctx context.Context, gameID string, doc []byte, roster []model.RosterEntry) (*service.GameResult, error)
}

// FeedHandler handles submitted feed documents.
type FeedHandler struct {
	deps    FeedDependencies
	maxBody int64
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(deps FeedDependencies, maxBody int64) *FeedHandler {
	return &FeedHandler{deps: deps, maxBody: maxBody}
}

// feedRequest is the wrapped form of POST /games/{gameID}/feed. A body with
// no "document" member is itself the feed document.
type feedRequest struct {
	Document jsoniter.RawMessage `json:"document"`
	Roster   []model.RosterEntry `json:"roster"`
}

func (f *feedRequest) validate(gameID string) error {
	for i := range f.Roster {
		e := &f.Roster[i]
		if e.GameID == "" {
			e.GameID = gameID
		}
		if e.GameID != gameID {
			return errors.Newf("roster entry %d is for game %s", i, e.GameID)
		}
		if err := roster.Validate(e); err != nil {
			return err
		}
	}
	return nil
}

// HandlePostFeed handles POST /games/{gameID}/feed requests.
func (h *FeedHandler) HandlePostFeed(w http.ResponseWriter, r *http.Request) {
	gameID := strings.TrimSpace(chi.URLParam(r, "gameID"))
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Wrap(ErrBadRequest, "missing game id"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", errors.Wrap(ErrBadRequest, err.Error()))
		return
	}

	var req feedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Wrap(ErrBadRequest, "body is not a JSON object"))
		return
	}
	doc := []byte(req.Document)
	if len(doc) == 0 {
		doc = body
		req.Roster = nil
	}
	if err := req.validate(gameID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_roster", err)
		return
	}

	res, err := h.deps.Ingest(r.Context(), gameID, doc, req.Roster)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, err)
		return
	}
	if res.Notifications == nil {
		res.Notifications = []model.NotificationEvent{}
	}
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps service errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, feed.ErrMalformedDocument):
		return http.StatusBadRequest, "malformed_document"
	case errors.Is(err, service.ErrNoRoster):
		return http.StatusNotFound, "no_roster"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	case errors.Is(err, service.ErrGameAborted):
		return http.StatusServiceUnavailable, "game_aborted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
