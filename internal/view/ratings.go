package view

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/storerate/rating-client/internal/core/domain"
)

// RecentRatingsLimit is how many ratings the owner dashboard lists.
const RecentRatingsLimit = 10

// Trend compares the two most recent ratings.
type Trend string

const (
	TrendUp   Trend = "↑"
	TrendDown Trend = "↓"
	TrendNone Trend = "-"
)

// RatingSummary is the owner-side digest of a store's ratings.
type RatingSummary struct {
	Count int
	// Average is rounded to one decimal; zero without ratings.
	Average decimal.Decimal
	// Distribution[i] counts ratings of i+1 stars.
	Distribution [domain.MaxRating]int
	// Recent holds up to RecentRatingsLimit ratings, newest first.
	Recent []domain.Rating
	Trend  Trend
}

// Summarize digests ratings in chronological order. Ratings sharing a
// timestamp keep their listing order.
func Summarize(ratings []domain.Rating) RatingSummary {
	ordered := make([]domain.Rating, len(ratings))
	copy(ordered, ratings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	sum := RatingSummary{Count: len(ordered), Trend: TrendNone}
	total := decimal.Zero
	for _, r := range ordered {
		if r.Rating >= domain.MinRating && r.Rating <= domain.MaxRating {
			sum.Distribution[r.Rating-1]++
		}
		total = total.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	if len(ordered) > 0 {
		sum.Average = total.Div(decimal.NewFromInt(int64(len(ordered)))).Round(1)
	}
	sum.Recent = lastReversed(ordered, RecentRatingsLimit)

	if n := len(ordered); n > 1 {
		if ordered[n-1].Rating > ordered[n-2].Rating {
			sum.Trend = TrendUp
		} else {
			sum.Trend = TrendDown
		}
	}
	return sum
}

// Percent is the share of ratings with the given star count, in whole
// percent.
func (s RatingSummary) Percent(stars int) int64 {
	if s.Count == 0 || stars < domain.MinRating || stars > domain.MaxRating {
		return 0
	}
	return decimal.NewFromInt(int64(s.Distribution[stars-1])).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.Count))).
		Round(0).
		IntPart()
}
