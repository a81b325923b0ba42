package analysis

import (
	"math"

	"portraits/internal/domain/classify"
)

// Rating buckets a quality score.
type Rating string

const (
	RatingExcellent        Rating = "excellent"
	RatingGood             Rating = "good"
	RatingFair             Rating = "fair"
	RatingNeedsImprovement Rating = "needs-improvement"
	RatingNotRated         Rating = "not-rated"
)

// Quality scores how cleanly a set of organizations clusters. The score is
// in [0, 10].
type Quality struct {
	Score            float64 `json:"score"`
	Rating           Rating  `json:"rating"`
	PatternPoints    float64 `json:"patternPoints"`
	UniversityPoints float64 `json:"universityPoints"`
	LevelPoints      float64 `json:"levelPoints"`
	NamePoints       float64 `json:"namePoints"`
}

// EvaluateQuality sums four components:
//   - pattern diversity, max(0, 3 - patterns/max(n/3, 1)), up to 3 points
//   - university spread, min(universities, 4)/4 * 2, up to 2 points
//   - level spread, min(levels, 3)/3 * 2, up to 2 points
//   - name consistency, (1 - uniqueNames/n) * 3, up to 3 points
func EvaluateQuality(records []classify.Record, patterns int) Quality {
	n := len(records)
	if n == 0 {
		return Quality{Rating: RatingNotRated}
	}

	univs := make(map[string]struct{})
	levels := make(map[string]struct{})
	names := make(map[string]struct{})
	for _, r := range records {
		univs[r.University] = struct{}{}
		levels[string(r.Classification.Level)] = struct{}{}
		names[r.Name] = struct{}{}
	}

	q := Quality{
		PatternPoints:    math.Max(0, 3-float64(patterns)/math.Max(float64(n)/3, 1)),
		UniversityPoints: float64(min(len(univs), 4)) / 4 * 2,
		LevelPoints:      float64(min(len(levels), 3)) / 3 * 2,
		NamePoints:       (1 - float64(len(names))/float64(n)) * 3,
	}
	q.Score = q.PatternPoints + q.UniversityPoints + q.LevelPoints + q.NamePoints
	q.Rating = RateScore(q.Score)
	return q
}

// RateScore maps a score to its rating.
func RateScore(score float64) Rating {
	switch {
	case score >= 7:
		return RatingExcellent
	case score >= 5:
		return RatingGood
	case score >= 3:
		return RatingFair
	default:
		return RatingNeedsImprovement
	}
}
