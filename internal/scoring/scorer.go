// Package scoring aggregates module results and turns them into the
// composite ability index.
package scoring

import (
	"math"

	"github.com/stemsi/exsim-backend/internal/model"
)

// Band is a named range of the ability index.
type Band struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Min         int    `json:"min"`
}

// Policy holds every constant the scorer uses.
type Policy struct {
	// LevelMultipliers[i] weights results achieved at level i+1.
	LevelMultipliers [5]float64
	Base             float64
	Center           float64
	Spread           float64
	MinIndex         float64
	MaxIndex         float64
	EstimateScale    float64
	EstimateOffset   float64
	// Bands sorted by Min, highest first. The last band is the floor.
	Bands []Band
}

// DefaultPolicy returns the standard norm-referenced policy.
func DefaultPolicy() Policy {
	return Policy{
		LevelMultipliers: [5]float64{0.70, 0.85, 1.00, 1.15, 1.30},
		Base:             100,
		Center:           0.5,
		Spread:           60,
		MinIndex:         70,
		MaxIndex:         145,
		EstimateScale:    6,
		EstimateOffset:   3,
		Bands: []Band{
			{ID: "exceptional", Label: "Exceptional", Description: "Exceptional cognitive ability", Min: 130},
			{ID: "very_high", Label: "Very High", Description: "High cognitive capacity", Min: 120},
			{ID: "high", Label: "High", Description: "Above-average performance", Min: 110},
			{ID: "average", Label: "Average", Description: "Typical cognitive performance", Min: 90},
			{ID: "developing", Label: "Developing", Description: "Room to grow in some areas", Min: 80},
			{ID: "needs_support", Label: "Needs Support", Description: "Targeted practice recommended", Min: math.MinInt32},
		},
	}
}

// Multiplier returns the weight for level, clamped to the table.
func (p Policy) Multiplier(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > len(p.LevelMultipliers) {
		level = len(p.LevelMultipliers)
	}
	return p.LevelMultipliers[level-1]
}

// WeightedAverage averages score/max_score × level multiplier over results.
// A result with max_score 0 contributes 0. No results yields 0.
func (p Policy) WeightedAverage(results []model.ModuleResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		var base float64
		if r.MaxScore > 0 {
			base = r.Score / r.MaxScore
		}
		sum += base * p.Multiplier(r.Level)
	}
	return sum / float64(len(results))
}

// Index maps results onto the ability scale. raw is the unclamped value,
// index is raw clamped to [MinIndex, MaxIndex] then rounded.
func (p Policy) Index(results []model.ModuleResult) (raw float64, index int) {
	raw = p.Base + (p.WeightedAverage(results)-p.Center)*p.Spread
	clamped := math.Min(math.Max(raw, p.MinIndex), p.MaxIndex)
	return raw, int(math.Round(clamped))
}

// Classify returns the first band whose floor index reaches.
func (p Policy) Classify(index int) Band {
	for _, b := range p.Bands {
		if index >= b.Min {
			return b
		}
	}
	if len(p.Bands) > 0 {
		return p.Bands[len(p.Bands)-1]
	}
	return Band{}
}

// AbilityEstimate is passRate × EstimateScale − EstimateOffset, two decimals.
func (p Policy) AbilityEstimate(s Summary) float64 {
	return round2(s.PassRate()*p.EstimateScale - p.EstimateOffset)
}

// BuildReport computes the final report for a completed session.
func (p Policy) BuildReport(session *model.ExamSession) *model.ExamReport {
	summary := Summarize(session.Results)
	raw, index := p.Index(session.Results)
	band := p.Classify(index)

	report := &model.ExamReport{
		SessionID:       session.ID,
		OwnerID:         session.OwnerID,
		ExamMode:        session.ExamMode,
		StartedAt:       session.StartedAt,
		ModuleCount:     len(session.Modules),
		Results:         append([]model.ModuleResult(nil), session.Results...),
		Categories:      summary.Breakdown(),
		PassCount:       summary.Passed,
		FailCount:       summary.Failed,
		MeanLevel:       summary.MeanLevel,
		Percentage:      summary.Percentage(),
		AbilityIndex:    index,
		RawIndex:        round2(raw),
		Band:            band.ID,
		BandLabel:       band.Label,
		AbilityEstimate: p.AbilityEstimate(summary),
	}
	if session.CompletedAt != nil {
		report.CompletedAt = *session.CompletedAt
	}
	return report
}
