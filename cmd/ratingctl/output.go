package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/view"
)

func table(w io.Writer, header []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	_ = tw.Flush()
}

func printUsers(w io.Writer, users []domain.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found")
		return
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		store := ""
		if u.StoreName != nil {
			store = fmt.Sprintf("%s (%s)", *u.StoreName, view.RatingLabel(u.StoreRating))
		}
		rows = append(rows, []string{fmt.Sprint(u.ID), u.Name, u.Email, u.Address, u.Role.DisplayName(), store})
	}
	table(w, []string{"ID", "NAME", "EMAIL", "ADDRESS", "ROLE", "STORE"}, rows)
}

func printStores(w io.Writer, stores []domain.Store, withMine bool) {
	if len(stores) == 0 {
		fmt.Fprintln(w, "No stores found")
		return
	}
	header := []string{"ID", "NAME", "EMAIL", "ADDRESS", "RATING"}
	if withMine {
		header = []string{"ID", "NAME", "ADDRESS", "RATING", "YOUR RATING"}
	}
	rows := make([][]string, 0, len(stores))
	for _, s := range stores {
		if withMine {
			rows = append(rows, []string{fmt.Sprint(s.ID), s.Name, s.Address, view.RatingLabel(s.Aggregate()), view.MyRatingLabel(s)})
			continue
		}
		rows = append(rows, []string{fmt.Sprint(s.ID), s.Name, s.Email, s.Address, view.RatingLabel(s.Aggregate())})
	}
	table(w, header, rows)
}

func printRatings(w io.Writer, ratings []domain.Rating) {
	if len(ratings) == 0 {
		fmt.Fprintln(w, "No ratings yet")
		return
	}
	rows := make([][]string, 0, len(ratings))
	for _, r := range ratings {
		rows = append(rows, []string{
			r.UserName,
			strings.Repeat("★", r.Rating),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	table(w, []string{"USER", "RATING", "DATE"}, rows)
}

func printSummary(w io.Writer, sum view.RatingSummary) {
	avg := view.NoRatingsLabel
	if sum.Count > 0 {
		avg = sum.Average.StringFixed(1)
	}
	fmt.Fprintf(w, "Average rating: %s  Total ratings: %d  Trend: %s\n", avg, sum.Count, sum.Trend)
	for stars := domain.MaxRating; stars >= domain.MinRating; stars-- {
		fmt.Fprintf(w, "  %d★ %3d%%  (%d)\n", stars, sum.Percent(stars), sum.Distribution[stars-1])
	}
}
