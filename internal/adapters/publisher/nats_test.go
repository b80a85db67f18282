package publisher_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/okian/touchdown/internal/adapters/publisher"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeJetStream struct {
	msgs []*nats.Msg
	opts int
	err  error
}

func (f *fakeJetStream) PublishMsg(_ context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, msg)
	f.opts = len(opts)
	return &jetstream.PubAck{Stream: "TOUCHDOWN", Sequence: uint64(len(f.msgs))}, nil
}

func TestJetStream(t *testing.T) {
	Convey("Given a jetstream publisher", t, func() {
		js := &fakeJetStream{}
		p := publisher.NewJetStream(js, publisher.DefaultJetStreamConfig())
		ev := event()

		Convey("Then the subject carries the game and kind", func() {
			So(p.Subject(&ev), ShouldEqual, "touchdown.notifications.401547417.TD")
		})

		Convey("When publishing", func() {
			err := p.Publish(context.Background(), ev)

			Convey("Then one message with identifying headers is sent", func() {
				So(err, ShouldBeNil)
				So(js.msgs, ShouldHaveLength, 1)
				So(js.msgs[0].Header.Get("Event-ID"), ShouldEqual, ev.ID)
				So(js.msgs[0].Header.Get("Owner-ID"), ShouldEqual, "7")
				So(string(js.msgs[0].Data), ShouldContainSubstring, `"player_name":"Deebo Samuel"`)
				So(js.opts, ShouldEqual, 2)
			})
		})

		Convey("When the server rejects the message", func() {
			js.err = errors.New("no responders")

			So(p.Publish(context.Background(), ev), ShouldNotBeNil)
			So(p.Close(), ShouldBeNil)
		})
	})
}
