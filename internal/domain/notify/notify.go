// Package notify renders credited outcomes into notification events.
// It knows nothing about transports.
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/touchdown/internal/domain/model"
)

// Message renders the deterministic alert text for one credited outcome.
// Outcomes with no template (for example a defender big play) render empty.
func Message(player string, o model.Outcome) string {
	y := o.Yards
	switch o.Kind {
	case model.KindTouchdown:
		switch o.Role {
		case model.RoleReceiver:
			if o.Counterparty != "" {
				return fmt.Sprintf("🎉 Touchdown! %s caught a %d yard TD from %s!", player, y, o.Counterparty)
			}
			return fmt.Sprintf("🎉 Touchdown! %s caught a %d yard TD!", player, y)
		case model.RoleFumbleRecoverer:
			return fmt.Sprintf("🎉 Touchdown! %s recovered a fumble for a %d yard TD!", player, y)
		case model.RoleRusher:
			return fmt.Sprintf("🎉 Touchdown! %s ran for a %d yard TD!", player, y)
		case model.RolePasser:
			return fmt.Sprintf("🎉 Touchdown! %s threw a %d yard TD to %s!", player, y, o.Counterparty)
		case model.RoleDefender:
			return fmt.Sprintf("🎉 Defensive Touchdown! %s got a pick 6!", player)
		}
	case model.KindBigPlay:
		switch o.Role {
		case model.RolePasser:
			return fmt.Sprintf("🚀 Big play! %s threw a pass of %d yards to %s!", player, y, o.Counterparty)
		case model.RoleReceiver:
			return fmt.Sprintf("🚀 Big play! %s caught a pass of %d yards.", player, y)
		case model.RoleRusher:
			return fmt.Sprintf("🚀 Big play! %s rushed for %d yards.", player, y)
		}
	}
	return ""
}

// Assembler builds NotificationEvents. It stamps each event with a fresh id
// and the current time of its clock.
type Assembler struct {
	clock clockwork.Clock
	newID func() string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock sets the clock used for CreatedAt.
func WithClock(c clockwork.Clock) Option {
	return func(a *Assembler) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithIDGenerator overrides the event id source.
func WithIDGenerator(f func() string) Option {
	return func(a *Assembler) {
		if f != nil {
			a.newID = f
		}
	}
}

// New creates an Assembler on the real clock with uuid ids.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		clock: clockwork.NewRealClock(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the event for credit on play. ok is false when the outcome
// has no message template.
func (a *Assembler) Assemble(play *model.Play, credit *model.Credit) (model.NotificationEvent, bool) {
	msg := Message(credit.Entry.PlayerName, credit.Outcome)
	if msg == "" {
		return model.NotificationEvent{}, false
	}
	e := credit.Entry
	return model.NotificationEvent{
		ID:                   a.newID(),
		GameID:               play.GameID,
		Quarter:              play.Quarter,
		Clock:                play.Clock,
		PlayerName:           e.PlayerName,
		OwnerID:              e.OwnerID,
		OwnerName:            e.OwnerName,
		PhoneNumber:          e.PhoneNumber,
		Kind:                 credit.Outcome.Kind,
		Role:                 credit.Outcome.Role,
		Yards:                credit.Outcome.Yards,
		Message:              msg,
		OpponentAbbreviation: e.OpponentAbbreviation,
		GameDate:             e.GameDate,
		Season:               e.Season,
		CreatedAt:            a.clock.Now().UTC().Truncate(time.Millisecond),
	}, true
}
