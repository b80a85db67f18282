package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/okian/touchdown/internal/adapters/http/api"
	"github.com/okian/touchdown/internal/adapters/publisher"
	service "github.com/okian/touchdown/internal/app"
	"github.com/okian/touchdown/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const summaryFeed = `{"page":{"content":{"gamepackage":{"scrSumm":{"scrPlayGrps":[
  [
    {"typeAbbreviation":"TD","text":"Austin Ekeler 1 Yd Run (Cameron Dicker Kick)","periodNum":1,"clock":"9:12"}
  ]
]}}}}}`

const ekelerRoster = `[{"player_name":"Austin Ekeler","team_abbreviation":"LAC","position":"RB","owner_id":1,"season":2023}]`

// mockDeps records what the handlers pass through.
type mockDeps struct {
	ingestErr  error
	cycleErr   error
	gotGameID  string
	gotDoc     string
	gotRoster  []model.RosterEntry
	lastReport *service.CycleReport
}

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"cycles": 3}
}

func (m *mockDeps) Ingest(_ context.Context, gameID string, doc []byte, roster []model.RosterEntry) (*service.GameResult, error) {
	m.gotGameID, m.gotDoc, m.gotRoster = gameID, string(doc), roster
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	return &service.GameResult{GameID: gameID}, nil
}

func (m *mockDeps) RunCycle(context.Context) (*service.CycleReport, error) {
	if m.cycleErr != nil {
		return nil, m.cycleErr
	}
	m.lastReport = &service.CycleReport{ID: "c1", Notifications: 2}
	return m.lastReport, nil
}

func (m *mockDeps) LastCycle() *service.CycleReport { return m.lastReport }

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestFeedEndpoint(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{}
		router := api.NewServer(deps).Router(context.Background())

		Convey("When a bare feed document is posted", func() {
			w := do(router, http.MethodPost, "/games/401/feed", summaryFeed)

			Convey("Then the whole body is the document and the roster comes from the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotGameID, ShouldEqual, "401")
				So(deps.gotDoc, ShouldEqual, summaryFeed)
				So(deps.gotRoster, ShouldBeEmpty)

				var res service.GameResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Notifications, ShouldNotBeNil)
				So(res.Notifications, ShouldBeEmpty)
			})
		})

		Convey("When a wrapped document with a roster is posted", func() {
			body := `{"document":` + summaryFeed + `,"roster":` + ekelerRoster + `}`
			w := do(router, http.MethodPost, "/games/401/feed", body)

			Convey("Then the roster entries inherit the path game id", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotRoster, ShouldHaveLength, 1)
				So(deps.gotRoster[0].GameID, ShouldEqual, "401")
				So(strings.HasPrefix(deps.gotDoc, `{"page"`), ShouldBeTrue)
			})
		})

		Convey("When a roster entry fails validation", func() {
			body := `{"document":` + summaryFeed + `,"roster":[{"player_name":"Austin Ekeler"}]}`
			w := do(router, http.MethodPost, "/games/401/feed", body)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "invalid_roster")
			So(deps.gotGameID, ShouldBeEmpty)
		})

		Convey("When a roster entry names another game", func() {
			body := `{"document":{},"roster":[{"player_name":"A","team_abbreviation":"SF","position":"WR","owner_id":1,"season":2023,"game_id":"999"}]}`
			w := do(router, http.MethodPost, "/games/401/feed", body)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not a JSON object", func() {
			w := do(router, http.MethodPost, "/games/401/feed", `[1,2]`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "bad_request")
		})

		Convey("When the game has no tracked players", func() {
			deps.ingestErr = errors.Wrap(service.ErrNoRoster, "game 401")
			w := do(router, http.MethodPost, "/games/401/feed", summaryFeed)

			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "no_roster")
		})

		Convey("When the dedup store aborts the game", func() {
			deps.ingestErr = errors.Mark(errors.New("connection reset"), service.ErrGameAborted)
			w := do(router, http.MethodPost, "/games/401/feed", summaryFeed)

			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "game_aborted")
		})

		Convey("When the body exceeds the limit", func() {
			small := api.NewServer(deps, api.WithMaxBodyBytes(16)).Router(context.Background())
			w := do(small, http.MethodPost, "/games/401/feed", summaryFeed)

			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})

		Convey("When the method is wrong", func() {
			w := do(router, http.MethodGet, "/games/401/feed", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestFeedEndpointWithService(t *testing.T) {
	Convey("Given an API backed by a real service", t, func() {
		svc := service.New(service.WithPipeline(service.NewPipeline(
			service.WithPublisher(publisher.NewFanout()),
		)))
		router := api.NewServer(svc).Router(context.Background())
		body := `{"document":` + summaryFeed + `,"roster":` + ekelerRoster + `}`

		Convey("When the same document is submitted twice", func() {
			first := do(router, http.MethodPost, "/games/401/feed", body)
			second := do(router, http.MethodPost, "/games/401/feed", body)

			Convey("Then only the first submission emits a notification", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusOK)

				var a, b service.GameResult
				So(json.Unmarshal(first.Body.Bytes(), &a), ShouldBeNil)
				So(json.Unmarshal(second.Body.Bytes(), &b), ShouldBeNil)
				So(a.Notifications, ShouldHaveLength, 1)
				So(a.Notifications[0].PlayerName, ShouldEqual, "Austin Ekeler")
				So(a.Notifications[0].Kind, ShouldEqual, model.KindTouchdown)
				So(b.Notifications, ShouldBeEmpty)
				So(b.Duplicates, ShouldEqual, 1)
			})
		})
	})
}

func TestCycleEndpoints(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{}
		router := api.NewServer(deps).Router(context.Background())

		Convey("When no cycle has run", func() {
			w := do(router, http.MethodGet, "/cycles/last", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When a cycle is triggered", func() {
			w := do(router, http.MethodPost, "/cycles", "")

			Convey("Then the report is returned and kept as the last cycle", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"id":"c1"`)

				last := do(router, http.MethodGet, "/cycles/last", "")
				So(last.Code, ShouldEqual, http.StatusOK)
				So(last.Body.String(), ShouldContainSubstring, `"notifications":2`)
			})
		})

		Convey("When the service is not started", func() {
			deps.cycleErr = service.ErrNotStarted
			w := do(router, http.MethodPost, "/cycles", "")

			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "not_started")
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given an API server", t, func() {
		router := api.NewServer(&mockDeps{}).Router(context.Background())

		Convey("When requesting /stats", func() {
			w := do(router, http.MethodGet, "/stats", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, `"cycles":3`)
		})

		Convey("When requesting /healthz after traffic", func() {
			do(router, http.MethodGet, "/stats", "")
			w := do(router, http.MethodGet, "/healthz", "")

			Convey("Then the exposition includes the HTTP metrics", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "touchdown_engine_http_requests_total")
			})
		})

		Convey("When the docs are requested", func() {
			w := do(router, http.MethodGet, "/openapi.yaml", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When a browser preflight arrives", func() {
			req := httptest.NewRequest(http.MethodOptions, "/stats", http.NoBody)
			req.Header.Set("Origin", "https://example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})
	})
}

func TestWebsocketRoute(t *testing.T) {
	Convey("Given an API server with a notification hub", t, func() {
		hub := publisher.NewHub(nil)
		defer hub.Close()
		srv := httptest.NewServer(api.NewServer(&mockDeps{}, api.WithHub(hub)).Router(context.Background()))
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("When a notification is published", func() {
			So(waitFor(func() bool { return hub.Clients() == 1 }), ShouldBeTrue)
			err := hub.Publish(context.Background(), model.NotificationEvent{ID: "e1", GameID: "401", OwnerID: 1, Kind: model.KindTouchdown})
			So(err, ShouldBeNil)

			Convey("Then the client receives it through the router", func() {
				_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				var ev model.NotificationEvent
				So(conn.ReadJSON(&ev), ShouldBeNil)
				So(ev.ID, ShouldEqual, "e1")
			})
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
