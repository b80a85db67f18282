// Package threshold extracts play yardage and decides whether a non-scoring
// play is big enough to alert on.
package threshold

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/domain/model"
)

// Default big-play thresholds in yards.
const (
	DefaultRushReceiveMinYards = 25
	DefaultPassMinYards        = 40
)

// Policy applies role-keyed big-play thresholds. The threshold follows the
// credited role, not the play: on one 30 yard completion the receiver
// qualifies and the passer does not.
type Policy struct {
	rushReceiveMin int
	passMin        int
}

// New creates a Policy with the default thresholds unless overridden.
func New(opts ...Option) *Policy {
	p := &Policy{
		rushReceiveMin: DefaultRushReceiveMinYards,
		passMin:        DefaultPassMinYards,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MinYards returns the big-play threshold for role. Roles that never earn a
// big play return -1.
func (p *Policy) MinYards(role model.Role) int {
	switch role {
	case model.RoleRusher, model.RoleReceiver:
		return p.rushReceiveMin
	case model.RolePasser:
		return p.passMin
	default:
		return -1
	}
}

// Floor is the smallest threshold of any role. Plays shorter than this cannot
// produce a big play for anyone.
func (p *Policy) Floor() int {
	return min(p.rushReceiveMin, p.passMin)
}

// BigPlay reports whether a non-scoring play of yards qualifies for role.
func (p *Policy) BigPlay(role model.Role, yards int) bool {
	threshold := p.MinYards(role)
	if threshold < 0 {
		return false
	}
	return yards >= threshold
}

// Yardage returns the play's yardage. The structured value wins when present;
// otherwise the first whitespace-separated token that parses as an integer is
// used. Only the first integer token is considered.
func Yardage(text string, structured *int) (int, error) {
	if structured != nil {
		if *structured < 0 {
			return 0, errors.Wrapf(ErrNegativeYardage, "structured yardage %d", *structured)
		}
		return *structured, nil
	}
	for _, token := range strings.Fields(text) {
		n, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		if n < 0 {
			return 0, errors.Wrapf(ErrNegativeYardage, "token %q", token)
		}
		return n, nil
	}
	return 0, errors.Wrapf(ErrNoYardage, "text %q", text)
}
