package assignment

import (
	"math"
	"sort"

	"food-delivery/internal/domain"
	"food-delivery/internal/ports/deliverytx"
)

// Scoring weights and eligibility thresholds.
const (
	WeightDistance   = 0.5
	WeightRating     = 0.3
	WeightExperience = 0.2

	MaxRating          = 5.0
	ExperienceCap      = 100
	RatingFloor        = 3.0
	RatingFloorMinJobs = 10

	AverageSpeedKmh = 20.0
	BufferMinutes   = 10
)

// Score ranks a candidate; higher is better.
func Score(distanceKm, avgRating float64, completed int) float64 {
	distance := 1 / (1 + math.Max(distanceKm, 0))
	rating := avgRating / MaxRating
	exp := float64(min(max(completed, 0), ExperienceCap)) / ExperienceCap
	return WeightDistance*distance + WeightRating*rating + WeightExperience*exp
}

// EstimateMinutes converts a distance into an ETA at the average courier speed.
func EstimateMinutes(distanceKm float64) int {
	return int(math.Ceil(distanceKm/AverageSpeedKmh*60)) + BufferMinutes
}

// Eligible reports whether a courier may take a new delivery. hasLocation
// tells whether any coordinate is known for it, live or persisted.
func Eligible(c deliverytx.Candidate, hasLocation bool) bool {
	if c.Courier.Status != domain.StatusAvailable || !hasLocation || c.HasActiveDelivery {
		return false
	}
	if c.Courier.TotalDeliveries > RatingFloorMinJobs && c.Courier.AverageRating < RatingFloor {
		return false
	}
	return true
}

type ranked struct {
	candidate  deliverytx.Candidate
	location   domain.Point
	distanceKm float64
	score      float64
}

// rankByScore orders best first, lowest courier id on ties.
func rankByScore(rs []ranked) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].score != rs[j].score {
			return rs[i].score > rs[j].score
		}
		return rs[i].candidate.Courier.ID < rs[j].candidate.Courier.ID
	})
}
