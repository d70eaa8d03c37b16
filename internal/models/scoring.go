package models

import "strings"

const (
	// alphabetSize is the denominator of the name score. Digits also count
	// toward the distinct set, so names with digits can score above maxScore.
	alphabetSize = 26
	maxScore     = 5.0

	// fullTrustStays is the stay count at which ranking relies entirely on ratings
	fullTrustStays = 10
)

// SitterScore derives the baseline score from a name: the number of distinct
// [a-z0-9] characters after lower-casing, scaled onto 0..5 by the alphabet size.
func SitterScore(name string) float64 {
	seen := make(map[rune]struct{})
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			seen[r] = struct{}{}
		}
	}

	return (float64(len(seen)) / alphabetSize) * maxScore
}

// RatingsScore is the mean of the ratings, or 0 when there are none.
func RatingsScore(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}

	sum := 0.0
	for _, rating := range ratings {
		sum += rating
	}
	return sum / float64(len(ratings))
}

// RatingWeight is how much of the overall rank comes from ratings after
// stayCount stays: linear up to fullTrustStays, then capped at 1.
func RatingWeight(stayCount int) float64 {
	if stayCount <= 0 {
		return 0
	}
	if stayCount >= fullTrustStays {
		return 1
	}
	return float64(stayCount) / fullTrustStays
}

// OverallRank blends the name score with the ratings score by RatingWeight.
// Without stays it is exactly the name score.
func OverallRank(sitterScore, ratingsScore float64, stayCount int) float64 {
	if stayCount <= 0 {
		return sitterScore
	}

	weight := RatingWeight(stayCount)
	return sitterScore*(1-weight) + ratingsScore*weight
}
