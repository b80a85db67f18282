// Package classify turns a normalized play and the tracked roster for its
// game into zero or more credited outcomes.
package classify

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/domain/attribution"
	"github.com/okian/touchdown/internal/domain/model"
	"github.com/okian/touchdown/internal/domain/threshold"
)

// Miss is a fail-soft classification failure. PlayerName is empty when the
// failure concerns the play as a whole.
type Miss struct {
	PlayerName string
	Err        error
}

// Verdict is the classification of one play.
type Verdict struct {
	Credits []model.Credit
	// Unknown is set for a scoring play whose label has no handler. The raw
	// feed should be archived under Label.
	Unknown bool
	Label   string
	Misses  []Miss
}

// Classifier is safe for concurrent use; it holds no per-play state.
type Classifier struct {
	policy  *threshold.Policy
	pickSix bool
}

// New creates a Classifier with default thresholds and pick-six enabled.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		policy:  threshold.New(),
		pickSix: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the threshold policy in use.
func (c *Classifier) Policy() *threshold.Policy { return c.policy }

// Classify credits every roster entry involved in play. Each entry receives
// at most one outcome.
func (c *Classifier) Classify(play *model.Play, roster []model.RosterEntry) Verdict {
	v := Verdict{Label: play.ScoringLabel}
	if !play.Scoring {
		c.bigPlay(play, roster, &v)
		return v
	}
	switch {
	case play.ScoringLabel == model.LabelTouchdown && play.Schema == model.SchemaScoringSummary:
		c.summaryTouchdown(play, roster, &v)
	case play.ScoringLabel == model.LabelTouchdown:
		c.driveTouchdown(play, roster, &v)
	case play.ScoringLabel == model.LabelInterceptionTouchdown && c.pickSix:
		c.pickSixTouchdown(play, roster, &v)
	default:
		v.Unknown = true
	}
	return v
}

// KeywordRule maps a lowercase keyword in touchdown summary text to the role
// of the player the text starts with.
type KeywordRule struct {
	Keywords []string
	Role     model.Role
}

// Matches reports whether lower contains any of the rule's keywords.
func (r KeywordRule) Matches(lower string) bool {
	for _, k := range r.Keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Precedence is fixed: a pass that ends in a fumble recovery is a reception.
var keywordRules = []KeywordRule{
	{Keywords: []string{"pass"}, Role: model.RoleReceiver},
	{Keywords: []string{"fumble recovery"}, Role: model.RoleFumbleRecoverer},
	{Keywords: []string{"run", "rush"}, Role: model.RoleRusher},
}

// KeywordRules returns a copy of the ordered keyword rules.
func KeywordRules() []KeywordRule {
	out := make([]KeywordRule, len(keywordRules))
	copy(out, keywordRules)
	return out
}

// PrimaryRole returns the role of the leading player of a touchdown summary.
func PrimaryRole(text string) (model.Role, bool) {
	lower := strings.ToLower(text)
	for _, r := range keywordRules {
		if r.Matches(lower) {
			return r.Role, true
		}
	}
	return "", false
}

func (c *Classifier) summaryTouchdown(play *model.Play, roster []model.RosterEntry, v *Verdict) {
	for _, entry := range roster {
		if entry.IsDefense() {
			continue
		}
		match, _ := attribution.MatchSummary(play.Text, entry.PlayerName)
		if match == attribution.SummaryNone {
			continue
		}
		yards, err := threshold.Yardage(play.Text, play.Yards)
		if err != nil {
			v.miss(entry.PlayerName, err)
			continue
		}
		out := model.Outcome{Kind: model.KindTouchdown, Yards: yards}
		switch match {
		case attribution.SummaryPrimary:
			role, ok := PrimaryRole(play.Text)
			if !ok {
				v.miss(entry.PlayerName, errors.Wrapf(ErrNoKeyword, "%q", play.Text))
				continue
			}
			out.Role = role
			if role == model.RoleReceiver {
				out.Counterparty, _ = attribution.PasserName(play.Text)
			}
		case attribution.SummaryPasser:
			passer, ok := attribution.PasserName(play.Text)
			if !ok || !strings.EqualFold(strings.TrimSpace(passer), strings.TrimSpace(entry.PlayerName)) {
				v.miss(entry.PlayerName, errors.Wrapf(ErrKickerMatch, "%q", play.Text))
				continue
			}
			out.Role = model.RolePasser
			out.Counterparty, _ = attribution.ReceiverName(play.Text, yards)
		}
		v.credit(entry, out)
	}
}

func (c *Classifier) driveTouchdown(play *model.Play, roster []model.RosterEntry, v *Verdict) {
	for _, entry := range roster {
		if entry.IsDefense() {
			continue
		}
		abbr := attribution.Abbreviate(entry.PlayerName)
		scorer := attribution.ResolveScorer(play.Text, abbr)
		if !scorer.Credited {
			if attribution.Mentions(play.Text, abbr) {
				v.miss(entry.PlayerName, errors.Wrapf(ErrKickerMatch, "rule %s", scorer.Rule))
			}
			continue
		}
		yards, err := threshold.Yardage(play.Text, play.Yards)
		if err != nil {
			v.miss(entry.PlayerName, err)
			continue
		}
		out := model.Outcome{Kind: model.KindTouchdown, Role: model.RoleRusher, Yards: yards}
		if attribution.IsPass(play.Text) {
			out.Role = attribution.PassRole(play.Text, abbr)
			if out.Role == model.RolePasser {
				out.Counterparty = receiver(play)
			}
		}
		v.credit(entry, out)
	}
}

func (c *Classifier) pickSixTouchdown(play *model.Play, roster []model.RosterEntry, v *Verdict) {
	name, ok := attribution.Interceptor(play.Text)
	if !ok {
		v.miss("", errors.Wrapf(ErrNoInterceptor, "%q", play.Text))
		return
	}
	team, ok := attribution.InterceptingTeam(name, play.Participants)
	if !ok {
		v.miss("", errors.Wrapf(ErrNoInterceptor, "no participant %q", name))
		return
	}
	yards, err := threshold.Yardage(play.Text, play.Yards)
	if err != nil {
		yards = 0
	}
	for _, entry := range roster {
		if !entry.IsDefense() || !strings.EqualFold(entry.TeamAbbreviation, team) {
			continue
		}
		v.credit(entry, model.Outcome{Kind: model.KindTouchdown, Role: model.RoleDefender, Yards: yards})
	}
}

func (c *Classifier) bigPlay(play *model.Play, roster []model.RosterEntry, v *Verdict) {
	var involved []model.RosterEntry
	for _, entry := range roster {
		if !entry.IsDefense() && mentions(play, entry.PlayerName) {
			involved = append(involved, entry)
		}
	}
	if len(involved) == 0 {
		return
	}
	yards, err := threshold.Yardage(play.Text, play.Yards)
	if err != nil {
		v.miss("", err)
		return
	}
	if yards < c.policy.Floor() {
		return
	}
	for _, entry := range involved {
		var role model.Role
		switch play.PlayType {
		case model.PlayTypeReception, model.PlayTypePass:
			role = attribution.PassRole(play.Text, attribution.Abbreviate(entry.PlayerName))
		case model.PlayTypeRush:
			role = model.RoleRusher
		default:
			continue
		}
		if !c.policy.BigPlay(role, yards) {
			continue
		}
		out := model.Outcome{Kind: model.KindBigPlay, Role: role, Yards: yards}
		if role == model.RolePasser {
			out.Counterparty = receiver(play)
		}
		v.credit(entry, out)
	}
}

func mentions(play *model.Play, fullName string) bool {
	if play.Schema == model.SchemaScoringSummary {
		return strings.Contains(play.Text, strings.TrimSpace(fullName))
	}
	return attribution.Mentions(play.Text, attribution.Abbreviate(fullName))
}

func receiver(play *model.Play) string {
	abbr, ok := attribution.ReceiverAbbreviation(play.Text)
	if !ok {
		return ""
	}
	return attribution.DisplayName(abbr, play.Participants)
}

func (v *Verdict) credit(entry model.RosterEntry, out model.Outcome) {
	v.Credits = append(v.Credits, model.Credit{Entry: entry, Outcome: out})
}

func (v *Verdict) miss(player string, err error) {
	v.Misses = append(v.Misses, Miss{PlayerName: player, Err: err})
}
