package attribution

import (
	"regexp"
	"strings"

	"github.com/okian/touchdown/internal/domain/model"
)

// TouchdownMarker is the literal the drive feed writes after the scorer.
const TouchdownMarker = "TOUCHDOWN"

// Positions are the byte offsets of an abbreviated name and of the
// TOUCHDOWN marker in a play's text; -1 when absent.
type Positions struct {
	Name   int
	Marker int
}

// Locate finds abbr and the TOUCHDOWN marker in text.
func Locate(text, abbr string) Positions {
	return Positions{Name: index(text, abbr), Marker: index(text, TouchdownMarker)}
}

// ScorerRule is one named rule of the abbreviated strategy. Rules are
// evaluated in order; the first match decides whether the player scored.
type ScorerRule struct {
	Name   string
	Match  func(p Positions) bool
	Credit bool
}

var scorerRules = []ScorerRule{
	{
		Name:   "name-absent",
		Match:  func(p Positions) bool { return p.Name < 0 },
		Credit: false,
	},
	{
		// Without the marker nothing can be shown to come before it.
		Name:   "marker-absent",
		Match:  func(p Positions) bool { return p.Marker < 0 },
		Credit: false,
	},
	{
		// "... TOUCHDOWN. R.Gould extra point is GOOD" names the kicker.
		Name:   "name-at-or-after-marker",
		Match:  func(p Positions) bool { return p.Marker <= p.Name },
		Credit: false,
	},
	{
		Name:   "name-before-marker",
		Match:  func(p Positions) bool { return p.Name < p.Marker },
		Credit: true,
	},
}

// ScorerRules returns the ordered abbreviated-strategy rules.
func ScorerRules() []ScorerRule {
	out := make([]ScorerRule, len(scorerRules))
	copy(out, scorerRules)
	return out
}

// Verdict is the result of resolving one player against a touchdown play.
type Verdict struct {
	Rule      string
	Credited  bool
	Positions Positions
}

// ResolveScorer decides whether the player abbreviated as abbr scored the
// touchdown described by text.
func ResolveScorer(text, abbr string) Verdict {
	pos := Locate(text, abbr)
	for _, r := range scorerRules {
		if r.Match(pos) {
			return Verdict{Rule: r.Name, Credited: r.Credit, Positions: pos}
		}
	}
	return Verdict{Positions: pos}
}

// Mentions reports whether abbr appears anywhere in text. Big plays carry no
// marker, so any mention counts.
func Mentions(text, abbr string) bool {
	return index(text, abbr) >= 0
}

const passWord = "pass"

// PassRole resolves a named player's role on a pass play: a name in front of
// the word "pass" threw it, anything else caught it.
func PassRole(text, abbr string) model.Role {
	name := index(text, abbr)
	pass := index(text, passWord)
	if name >= 0 && pass >= 0 && name < pass {
		return model.RolePasser
	}
	return model.RoleReceiver
}

// IsPass reports whether the play text describes a pass.
func IsPass(text string) bool {
	return index(text, passWord) >= 0
}

var receiverAfterTo = regexp.MustCompile(`\bto\s+(\S+)`)

// ReceiverAbbreviation returns the abbreviated name following "to" after the
// word "pass": "P.Mahomes pass deep right to M.Hardman pushed ob" -> "M.Hardman".
func ReceiverAbbreviation(text string) (string, bool) {
	pass := index(text, passWord)
	if pass < 0 {
		return "", false
	}
	m := receiverAfterTo.FindStringSubmatch(text[pass:])
	if m == nil {
		return "", false
	}
	name := trimToken(m[1])
	if name == "" {
		return "", false
	}
	return name, true
}

// DisplayName resolves an abbreviated name to a full name through the
// participants' last names. The abbreviation is returned when no participant
// matches.
func DisplayName(abbr string, participants []model.Participant) string {
	last := abbr
	if dot := strings.IndexByte(abbr, '.'); dot >= 0 {
		last = abbr[dot+1:]
	}
	for _, p := range participants {
		if p.LastName != "" && p.LastName == last && p.DisplayName != "" {
			return p.DisplayName
		}
	}
	return abbr
}

var interceptedBy = regexp.MustCompile(`INTERCEPTED by\s+(\S+)`)

// Interceptor returns the abbreviated name in "INTERCEPTED by T.Hufanga at ...".
func Interceptor(text string) (string, bool) {
	m := interceptedBy.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := trimToken(m[1])
	return name, name != ""
}

// InterceptingTeam finds the interceptor among the participants by short name
// (spaces removed, "T. Hufanga" == "T.Hufanga") and returns their team.
func InterceptingTeam(shortName string, participants []model.Participant) (string, bool) {
	for _, p := range participants {
		if strings.ReplaceAll(p.ShortName, " ", "") == shortName && p.TeamAbbreviation != "" {
			return p.TeamAbbreviation, true
		}
	}
	return "", false
}
