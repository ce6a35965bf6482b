package scoring

import (
	"math"

	"github.com/stemsi/exsim-backend/internal/model"
)

// Tally counts attempts and passes for one category.
type Tally struct {
	Attempted int `json:"attempted"`
	Passed    int `json:"passed"`
}

// Summary is the running aggregate over a session's results.
type Summary struct {
	Attempted   int                      `json:"attempted"`
	Passed      int                      `json:"passed"`
	Failed      int                      `json:"failed"`
	Categories  map[model.Category]Tally `json:"categories"`
	LevelSum    int                      `json:"-"`
	MeanLevel   float64                  `json:"mean_level"`
	ScoreSum    float64                  `json:"score_sum"`
	MaxScoreSum float64                  `json:"max_score_sum"`
}

// Summarize folds results into a Summary.
func Summarize(results []model.ModuleResult) Summary {
	s := Summary{Categories: make(map[model.Category]Tally)}
	for _, r := range results {
		s.Add(r)
	}
	return s
}

// Add folds one more result into the summary.
func (s *Summary) Add(r model.ModuleResult) {
	if s.Categories == nil {
		s.Categories = make(map[model.Category]Tally)
	}

	s.Attempted++
	if r.Passed {
		s.Passed++
	} else {
		s.Failed++
	}

	t := s.Categories[r.Category]
	t.Attempted++
	if r.Passed {
		t.Passed++
	}
	s.Categories[r.Category] = t

	s.LevelSum += r.Level
	s.MeanLevel = round2(float64(s.LevelSum) / float64(s.Attempted))
	s.ScoreSum += r.Score
	s.MaxScoreSum += r.MaxScore
}

// PassRate is passed/attempted, 0 for an empty summary.
func (s Summary) PassRate() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Attempted)
}

// Percentage is round(score sum / max score sum × 100), 0 when nothing was scorable.
func (s Summary) Percentage() int {
	if s.MaxScoreSum <= 0 {
		return 0
	}
	return int(math.Round(s.ScoreSum / s.MaxScoreSum * 100))
}

// Breakdown lists attempted categories in catalog order.
func (s Summary) Breakdown() []model.CategoryBreakdown {
	out := make([]model.CategoryBreakdown, 0, len(s.Categories))
	for _, c := range model.Categories {
		t, ok := s.Categories[c]
		if !ok || t.Attempted == 0 {
			continue
		}
		out = append(out, model.CategoryBreakdown{
			Category:   c,
			Attempted:  t.Attempted,
			Passed:     t.Passed,
			Percentage: int(math.Round(float64(t.Passed) / float64(t.Attempted) * 100)),
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
