package feed

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/domain/model"
)

type drives struct {
	Previous []drive `json:"previous"`
	Current  *drive  `json:"current"`
}

type drive struct {
	DisplayResult string      `json:"displayResult"`
	Plays         []drivePlay `json:"plays"`
}

type drivePlay struct {
	Text        string  `json:"text"`
	ScoringPlay *bool   `json:"scoringPlay"`
	StatYardage *number `json:"statYardage"`
	ScoringType *struct {
		DisplayName string `json:"displayName"`
	} `json:"scoringType"`
	Period *struct {
		Number *number `json:"number"`
	} `json:"period"`
	Clock *text `json:"clock"`
	Type  *struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"type"`
	Participants []struct {
		Athlete *struct {
			DisplayName string `json:"displayName"`
			ShortName   string `json:"shortName"`
			LastName    string `json:"lastName"`
			Team        *struct {
				Abbreviation string `json:"abbreviation"`
			} `json:"team"`
		} `json:"athlete"`
	} `json:"participants"`
}

func (p *drivePlay) scoringTypeName() string {
	if p.ScoringType == nil {
		return ""
	}
	return strings.TrimSpace(p.ScoringType.DisplayName)
}

func (p *drivePlay) flaggedScoring() bool {
	return p.ScoringPlay != nil && *p.ScoringPlay
}

// isScoring reports whether the drive ended in a score and therefore must
// contain a play with scoring-type data.
func (d *drive) isScoring() bool {
	if strings.Contains(strings.ToLower(d.DisplayResult), model.LabelTouchdown) {
		return true
	}
	for i := range d.Plays {
		if d.Plays[i].flaggedScoring() || d.Plays[i].scoringTypeName() != "" {
			return true
		}
	}
	return false
}

// scoringIndex walks the drive backward for the first play carrying
// scoring-type data, bounded by the drive length.
func (d *drive) scoringIndex() int {
	for i := len(d.Plays) - 1; i >= 0; i-- {
		if d.Plays[i].scoringTypeName() != "" {
			return i
		}
	}
	return -1
}

func (d *drive) scoringLabel(p *drivePlay) string {
	label := strings.TrimSpace(d.DisplayResult)
	if label == "" {
		label = p.scoringTypeName()
	}
	return strings.ToLower(label)
}

func normalizeDrives(gameID string, ds *drives) *Result {
	res := &Result{Schema: model.SchemaDrives}
	all := ds.Previous
	if ds.Current != nil {
		all = append(all[:len(all):len(all)], *ds.Current)
	}
	seq := 0
	for di := range all {
		d := &all[di]
		scoring := -1
		if d.isScoring() {
			scoring = d.scoringIndex()
			if scoring < 0 {
				res.Faults = append(res.Faults, Fault{
					Drive: di, Play: -1,
					Err: errors.Wrapf(ErrIncompletePlayData, "drive %q has no play with a scoring type", d.DisplayResult),
				})
				continue
			}
		}
		for pi := range d.Plays {
			p := &d.Plays[pi]
			isScoring := pi == scoring
			// A flagged scoring play that is not the located one has no type
			// data; it cannot be classified either way.
			if !isScoring && p.flaggedScoring() {
				continue
			}
			play, err := toPlay(gameID, p)
			if err != nil {
				res.Faults = append(res.Faults, Fault{Drive: di, Play: pi, Err: err})
				continue
			}
			play.Sequence = seq
			if isScoring {
				play.Scoring = true
				play.ScoringLabel = d.scoringLabel(p)
			}
			res.Plays = append(res.Plays, play)
			seq++
		}
	}
	return res
}

func toPlay(gameID string, p *drivePlay) (model.Play, error) {
	if p.Period == nil || p.Period.Number.ptr() == nil || p.Clock == nil || p.Clock.value == "" {
		return model.Play{}, errors.Wrapf(ErrMalformedPlay, "play %q missing period or clock", p.Text)
	}
	play := model.Play{
		GameID:  gameID,
		Schema:  model.SchemaDrives,
		Quarter: p.Period.Number.value,
		Clock:   p.Clock.value,
		Text:    p.Text,
		Yards:   p.StatYardage.ptr(),
	}
	if p.Type != nil {
		play.PlayType = strings.ToLower(strings.TrimSpace(p.Type.Abbreviation))
	}
	for _, part := range p.Participants {
		if part.Athlete == nil {
			continue
		}
		mp := model.Participant{
			DisplayName: part.Athlete.DisplayName,
			ShortName:   part.Athlete.ShortName,
			LastName:    part.Athlete.LastName,
		}
		if part.Athlete.Team != nil {
			mp.TeamAbbreviation = part.Athlete.Team.Abbreviation
		}
		play.Participants = append(play.Participants, mp)
	}
	return play, nil
}
