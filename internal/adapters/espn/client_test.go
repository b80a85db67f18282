package espn_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/adapters/espn"
	. "github.com/smartystreets/goconvey/convey"
)

const page = `<!DOCTYPE html><html><head>
<script type="text/javascript">window.dataLayer = [];</script>
<script type="text/javascript">window['__espnfitt__'] = {"page":{"content":{"gamepackage":{"scrSumm":{"scrPlayGrps":[]}}}}};</script>
</head><body><p>window['__espnfitt__'] = "not in a script"</p></body></html>`

func newServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/game/401", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/game/402", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"drives":{"previous":[]}}`))
	})
	mux.HandleFunc("/game/403", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>maintenance</body></html>"))
	})
	mux.HandleFunc("/game/500", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return httptest.NewServer(mux)
}

func TestFetch(t *testing.T) {
	Convey("Given a feed server", t, func() {
		srv := newServer()
		Reset(srv.Close)
		c := espn.New(espn.WithBaseURL(srv.URL+"/game/"), espn.WithRateLimit(1000), espn.WithTimeout(time.Second))
		ctx := context.Background()

		Convey("When the game page embeds the feed", func() {
			doc, err := c.Fetch(ctx, "401")

			Convey("Then the assigned object is returned without the semicolon", func() {
				So(err, ShouldBeNil)
				So(string(doc), ShouldEqual, `{"page":{"content":{"gamepackage":{"scrSumm":{"scrPlayGrps":[]}}}}}`)
			})
		})

		Convey("When the endpoint answers with JSON", func() {
			doc, err := c.Fetch(ctx, "402")

			So(err, ShouldBeNil)
			So(string(doc), ShouldEqual, `{"drives":{"previous":[]}}`)
		})

		Convey("When the page has no feed", func() {
			_, err := c.Fetch(ctx, "403")

			So(errors.Is(err, espn.ErrNoDocument), ShouldBeTrue)
		})

		Convey("When the server fails", func() {
			_, err := c.Fetch(ctx, "500")

			So(errors.Is(err, espn.ErrStatus), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := c.Fetch(cctx, "401")

			So(errors.Is(err, espn.ErrFetch), ShouldBeTrue)
		})
	})
}

func TestExtractDocument(t *testing.T) {
	Convey("Given a script with surrounding whitespace", t, func() {
		doc, err := espn.ExtractDocument([]byte("<script>\n  window['__espnfitt__']={\"a\":1} ;\n</script>"))

		So(err, ShouldBeNil)
		So(string(doc), ShouldEqual, `{"a":1}`)
	})
}
