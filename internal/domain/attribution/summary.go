package attribution

import (
	"regexp"
	"strconv"
	"strings"
)

// SummaryMatch is how a tracked full name appears in scoring-summary text.
type SummaryMatch int

// Scoring-summary match results.
const (
	// SummaryNone means the player is not named in the text.
	SummaryNone SummaryMatch = iota
	// SummaryPrimary means the text starts with the player's name: the player
	// carried, caught or recovered the ball.
	SummaryPrimary
	// SummaryPasser means the player is named after the start of the text:
	// the player threw the touchdown.
	SummaryPasser
)

// String implements fmt.Stringer.
func (m SummaryMatch) String() string {
	switch m {
	case SummaryPrimary:
		return "primary"
	case SummaryPasser:
		return "passer"
	default:
		return "none"
	}
}

// SummaryRule is one named prefix/contains rule. Rules are evaluated in order
// and the first one whose Match returns true decides.
type SummaryRule struct {
	Name   string
	Match  func(text, fullName string) bool
	Result SummaryMatch
}

var summaryRules = []SummaryRule{
	{
		Name:   "text-starts-with-name",
		Match:  func(text, fullName string) bool { return strings.HasPrefix(text, fullName) },
		Result: SummaryPrimary,
	},
	{
		Name:   "text-contains-name",
		Match:  func(text, fullName string) bool { return strings.Contains(text, fullName) },
		Result: SummaryPasser,
	},
}

// SummaryRules returns the ordered prefix/contains rules.
func SummaryRules() []SummaryRule {
	out := make([]SummaryRule, len(summaryRules))
	copy(out, summaryRules)
	return out
}

// MatchSummary applies the prefix/contains rules for fullName. The returned
// rule name is empty when nothing matched.
func MatchSummary(text, fullName string) (SummaryMatch, string) {
	if strings.TrimSpace(fullName) == "" {
		return SummaryNone, ""
	}
	for _, r := range summaryRules {
		if r.Match(text, fullName) {
			return r.Result, r.Name
		}
	}
	return SummaryNone, ""
}

var (
	// "George Kittle Pass From Brock Purdy for 28 Yds, ..." (game in progress)
	passerInProgress = regexp.MustCompile(`(?i)\bpass from\s+(.+?)\s+for\s+\d+\s+yds?\b`)
	// "Tyreek Hill 60 Yd pass from Tua Tagovailoa (Jason Sanders Kick)" (game final)
	passerCompleted = regexp.MustCompile(`(?i)\bpass from\s+(.+?)\s*\(`)
	// receiver is whatever precedes the pass phrase, minus a "60 Yd" yardage.
	receiverBeforePass = regexp.MustCompile(`(?i)^(.+?)\s+(?:\d+\s+yds?\s+)?pass from\b`)
)

// PasserName extracts the passer from a scoring-summary passing touchdown.
// The parenthesis-free in-progress form is tried before the completed-game
// form.
func PasserName(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{passerInProgress, passerCompleted} {
		if m := re.FindStringSubmatch(text); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name, true
			}
		}
	}
	return "", false
}

// ReceiverName extracts the receiver from a scoring-summary passing touchdown.
// When the pass phrase cannot be found the text in front of the yardage
// integer is used instead.
func ReceiverName(text string, yards int) (string, bool) {
	if m := receiverBeforePass.FindStringSubmatch(text); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name, true
		}
	}
	token := " " + strconv.Itoa(yards) + " "
	if i := strings.Index(text, token); i > 0 {
		return strings.TrimSpace(text[:i]), true
	}
	return "", false
}
