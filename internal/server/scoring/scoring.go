// Package scoring turns raw questionnaire answers into dimension scores, an
// overall average and a qualitative classification. It has no side effects.
package scoring

import (
	"math"
	"sort"

	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

const (
	// MaxChoice is the highest valid choice index (answers are 0..3).
	MaxChoice = 3

	maxFindings        = 3
	maxSpecificActions = 2
	attentionThreshold = 3.0
	criticalThreshold  = 2.0
	highThreshold      = 2.5
)

// Result is the outcome of Score.
type Result struct {
	DimensionScores map[string]float64
	// Overall is the unrounded mean; status and priority are derived from it.
	Overall         float64
	Status          models.Status
	Priority        models.Priority
	Findings        []models.Finding
	Recommendations []string
}

// OverallRounded is Overall rounded to one decimal, the stored value.
func (r Result) OverallRounded() float64 { return round1(r.Overall) }

type scored struct {
	dim   Dimension
	score float64
}

// Score computes the result for answers against the product's dimension
// table. Answers beyond the table are ignored. Nil answers are skipped.
func Score(answers []*int, p models.Product) Result {
	present := make([]scored, 0, len(Dimensions(p)))
	scores := make(map[string]float64)

	start := 0
	for _, d := range Dimensions(p) {
		end := min(start+d.Questions, len(answers))
		var sum float64
		var n int
		for i := start; i < end; i++ {
			if answers[i] == nil {
				continue
			}
			sum += ChoiceValue(*answers[i])
			n++
		}
		start += d.Questions
		if n == 0 {
			continue
		}
		s := round1(sum / float64(n))
		scores[d.Name] = s
		present = append(present, scored{dim: d, score: s})
	}

	overall := mean(present)
	status := statusFor(overall)

	// stable so ties keep question order
	lowest := make([]scored, len(present))
	copy(lowest, present)
	sort.SliceStable(lowest, func(i, j int) bool { return lowest[i].score < lowest[j].score })

	return Result{
		DimensionScores: scores,
		Overall:         overall,
		Status:          status,
		Priority:        priorityFor(overall, present),
		Findings:        findings(lowest),
		Recommendations: recommendations(lowest, status),
	}
}

// ChoiceValue maps a choice index onto the 1..5 scale.
func ChoiceValue(c int) float64 {
	return float64(c+1) * 1.25
}

func mean(ss []scored) float64 {
	if len(ss) == 0 {
		return 0
	}
	var sum float64
	for _, s := range ss {
		sum += s.score
	}
	return sum / float64(len(ss))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func statusFor(overall float64) models.Status {
	switch {
	case overall >= 4.0:
		return models.StatusExcellent
	case overall >= 3.0:
		return models.StatusStable
	case overall >= 2.0:
		return models.StatusAlert
	default:
		return models.StatusCritical
	}
}

func priorityFor(overall float64, present []scored) models.Priority {
	if overall < criticalThreshold {
		return models.PriorityUrgent
	}
	critical := 0
	for _, s := range present {
		if s.score < criticalThreshold {
			critical++
		}
	}
	switch {
	case critical >= 2:
		return models.PriorityHigh
	case critical >= 1 || overall < 3.0:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func severityFor(score float64) models.Severity {
	switch {
	case score < criticalThreshold:
		return models.SeverityCritical
	case score < highThreshold:
		return models.SeverityHigh
	default:
		return models.SeverityModerate
	}
}

func findings(lowest []scored) []models.Finding {
	out := []models.Finding{}
	for i, s := range lowest {
		if i >= maxFindings {
			break
		}
		if s.score >= attentionThreshold {
			continue
		}
		text := s.dim.Finding
		if text == "" {
			text = fallbackFinding
		}
		out = append(out, models.Finding{
			Dimension: s.dim.Name,
			Score:     s.score,
			Severity:  severityFor(s.score),
			Text:      text,
		})
	}
	return out
}

func recommendations(lowest []scored, status models.Status) []string {
	out := []string{generalRecommendation[status]}
	for i, s := range lowest {
		if i >= maxSpecificActions {
			break
		}
		if s.score < attentionThreshold && s.dim.Action != "" {
			out = append(out, s.dim.Action)
		}
	}
	return out
}
