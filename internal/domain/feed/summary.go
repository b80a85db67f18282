package feed

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/okian/touchdown/internal/domain/model"
)

// page.content.gamepackage.scrSumm.scrPlayGrps
type summaryPage struct {
	Content *struct {
		Gamepackage *struct {
			ScrSumm *struct {
				ScrPlayGrps [][]summaryPlay `json:"scrPlayGrps"`
			} `json:"scrSumm"`
		} `json:"gamepackage"`
	} `json:"content"`
}

func (p *summaryPage) groups() [][]summaryPlay {
	if p == nil || p.Content == nil || p.Content.Gamepackage == nil || p.Content.Gamepackage.ScrSumm == nil {
		return nil
	}
	groups := p.Content.Gamepackage.ScrSumm.ScrPlayGrps
	if groups == nil {
		return [][]summaryPlay{}
	}
	return groups
}

type summaryPlay struct {
	TypeAbbreviation string  `json:"typeAbbreviation"`
	Text             string  `json:"text"`
	PeriodNum        *number `json:"periodNum"`
	Clock            *text   `json:"clock"`
}

var summaryLabels = map[string]string{
	"TD": model.LabelTouchdown,
	"FG": "field goal",
	"SF": "safety",
}

func summaryLabel(abbr string) string {
	abbr = strings.TrimSpace(abbr)
	if label, ok := summaryLabels[strings.ToUpper(abbr)]; ok {
		return label
	}
	return strings.ToLower(abbr)
}

func normalizeSummary(gameID string, groups [][]summaryPlay) *Result {
	res := &Result{Schema: model.SchemaScoringSummary}
	seq := 0
	for g, group := range groups {
		for i, sp := range group {
			if sp.PeriodNum.ptr() == nil || sp.Clock == nil || sp.Clock.value == "" {
				res.Faults = append(res.Faults, Fault{
					Drive: g, Play: i,
					Err: errors.Wrapf(ErrMalformedPlay, "scoring play %q missing period or clock", sp.Text),
				})
				continue
			}
			res.Plays = append(res.Plays, model.Play{
				GameID:       gameID,
				Schema:       model.SchemaScoringSummary,
				Sequence:     seq,
				Quarter:      sp.PeriodNum.value,
				Clock:        sp.Clock.value,
				Text:         sp.Text,
				Scoring:      true,
				ScoringLabel: summaryLabel(sp.TypeAbbreviation),
			})
			seq++
		}
	}
	return res
}
