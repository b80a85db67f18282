// Package model contains domain models passed between layers.
package model

// Schema identifies which feed shape a Play was normalized from.
type Schema string

// Supported feed schemas.
const (
	// SchemaScoringSummary is the grouped scoring-summary feed
	// (page.content.gamepackage.scrSumm.scrPlayGrps).
	SchemaScoringSummary Schema = "scoring_summary"
	// SchemaDrives is the drive-based live feed (drives.previous / drives.current).
	SchemaDrives Schema = "drives"
)

// Play type abbreviations as carried by the drive feed.
const (
	PlayTypeRush      = "rush"
	PlayTypeReception = "rec"
	PlayTypePass      = "pass"
)

// Scoring labels the classifier acts on. Labels are always lowercased.
const (
	LabelTouchdown             = "touchdown"
	LabelInterceptionTouchdown = "interception touchdown"
)

// Participant is a player listed on a drive-feed play.
type Participant struct {
	DisplayName      string
	ShortName        string
	LastName         string
	TeamAbbreviation string
}

// Play is one normalized play. Schema-specific fields are left empty when the
// source schema does not carry them.
type Play struct {
	GameID   string
	Schema   Schema
	Sequence int // position in the feed, starting at 0

	Quarter int
	Clock   string
	Text    string

	// Yards is the structured yardage when the feed carries one.
	Yards *int

	// PlayType is the lowercased play-type abbreviation (rush, rec, pass).
	PlayType string

	Scoring      bool
	ScoringLabel string

	Participants []Participant
}

// HasYards reports whether the feed supplied a structured yardage value.
func (p *Play) HasYards() bool {
	return p.Yards != nil
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
