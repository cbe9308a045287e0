package provider

import (
	"math"

	"github.com/ecolens/ecolens/internal/domain/model"
)

// XP formula bounds: the most eco-friendly analysis earns +1000, the most
// harmful costs -250.
const (
	xpMax = 1000
	xpMin = -250
)

// xpForAnalysis maps sustainability scores to an XP delta. Lower scores are
// more eco-friendly and earn more XP; high scores go negative. The overall
// score is blended with the stage average, then shaped at the extremes.
func xpForAnalysis(score float64, stages map[string]model.StageImpact) int {
	stageAvg := score
	var stageMin, stageMax float64
	if len(stages) > 0 {
		var sum float64
		stageMin, stageMax = math.Inf(1), math.Inf(-1)
		for _, st := range stages {
			sum += st.Score
			stageMin = math.Min(stageMin, st.Score)
			stageMax = math.Max(stageMax, st.Score)
		}
		stageAvg = sum / float64(len(stages))
	}

	badness := 0.6*score + 0.4*stageAvg
	badness = math.Max(1.0, math.Min(10.0, badness))

	xp := int(math.Round(1000 - ((badness-1.0)/9.0)*1250))

	if badness <= 2.0 {
		xp += 100
	}
	if badness >= 8.5 {
		xp -= 150
	}
	if len(stages) > 0 {
		if stageMax >= 9 {
			xp -= 100
		}
		if stageMin <= 2 {
			xp += 50
		}
	}

	return max(xpMin, min(xpMax, xp))
}
