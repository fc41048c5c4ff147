package main

import (
	"context"
	"fmt"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/view"
)

func (c *cli) dashboard(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("dashboard"), args); err != nil {
		return err
	}

	res := c.app.Sync.FetchDashboard(ctx)
	return domain.Match(res,
		func(d domain.Dashboard) error {
			if d.Admin != nil {
				c.adminDashboard(ctx, d.Admin)
				return nil
			}
			c.ownerDashboard(d.Owner)
			return nil
		},
		func(_ domain.Dashboard, msg string) error {
			fmt.Fprintln(c.out, msg)
			return nil
		},
		failure,
	)
}

func (c *cli) ownerDashboard(d *domain.OwnerDashboard) {
	if d.StoreName != "" {
		fmt.Fprintf(c.out, "Store: %s\n", d.StoreName)
	}
	sum := view.Summarize(d.Ratings)
	printSummary(c.out, sum)
	fmt.Fprintln(c.out, "\nRecent ratings:")
	printRatings(c.out, sum.Recent)
}

func (c *cli) ratings(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("ratings"), args); err != nil {
		return err
	}

	res := c.app.Sync.FetchOwnerRatings(ctx)
	return domain.Match(res,
		func(r domain.OwnerRatings) error {
			if r.StoreName != "" {
				fmt.Fprintf(c.out, "Store: %s\n", r.StoreName)
			}
			printSummary(c.out, view.Summarize(r.Ratings))
			fmt.Fprintln(c.out)
			printRatings(c.out, r.Ratings)
			return nil
		},
		func(_ domain.OwnerRatings, msg string) error {
			fmt.Fprintln(c.out, msg)
			return nil
		},
		failure,
	)
}
