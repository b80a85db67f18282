// Package feed normalizes the two play-by-play feed schemas into one ordered
// sequence of model.Play.
//
// The scoring-summary schema lists only scoring plays, grouped by quarter.
// The drive schema lists every play of every drive; the scoring play of a
// drive is located by walking the drive backward because trailing entries
// (end of quarter, timeouts) carry no scoring data.
package feed

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/domain/model"
)

// Fault records a drive or play that was dropped during normalization.
// Faults never abort the feed.
type Fault struct {
	Drive int // drive index, or scoring group index for the summary schema
	Play  int // play index within the drive or group, -1 for a whole drive
	Err   error
}

// Error implements error.
func (f Fault) Error() string {
	if f.Play < 0 {
		return fmt.Sprintf("drive %d: %v", f.Drive, f.Err)
	}
	return fmt.Sprintf("drive %d play %d: %v", f.Drive, f.Play, f.Err)
}

// Unwrap exposes the sentinel.
func (f Fault) Unwrap() error { return f.Err }

// Result is a normalized feed snapshot.
type Result struct {
	Schema model.Schema
	Plays  []model.Play
	Faults []Fault
}

// envelope carries just enough of either schema to tell them apart.
type envelope struct {
	Page   *summaryPage `json:"page"`
	Drives *drives      `json:"drives"`
}

// Normalize parses doc and returns its plays in feed order. A document with
// neither a scoring summary nor drives yields an empty result. Only a payload
// that is not a JSON object is an error.
func Normalize(gameID string, doc []byte) (*Result, error) {
	doc = bytes.TrimSpace(doc)
	if len(doc) == 0 || doc[0] != '{' {
		return nil, errors.Wrap(ErrMalformedDocument, "expected a JSON object")
	}
	var env envelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode feed"), ErrMalformedDocument)
	}

	switch {
	case env.Drives != nil:
		return normalizeDrives(gameID, env.Drives), nil
	case env.Page.groups() != nil:
		return normalizeSummary(gameID, env.Page.groups()), nil
	default:
		return &Result{}, nil
	}
}
