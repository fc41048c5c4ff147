package main

import (
	"context"
	"fmt"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/forms"
	"github.com/storerate/rating-client/internal/view"
)

func (c *cli) stores(ctx context.Context, args []string) error {
	fs := c.flags("stores")
	filters := filterFlag{}
	var q view.StoreQuery
	fs.Var(filters, "filter", "Server-side filter key=value (repeatable)")
	fs.StringVar(&q.Search, "search", "", "Match name, email or address (name or address for users)")
	fs.StringVar(&q.Address, "address", "", "Match address")
	fs.StringVar(&q.SortBy, "sort", "", "Sort by name, email or rating")
	fs.BoolVar(&q.Desc, "desc", false, "Reverse the sort order")
	where := fs.String("where", "", `Expression filter, e.g. 'rated && rating >= 4'`)
	if err := c.parse(fs, args); err != nil {
		return err
	}

	res := c.app.Sync.FetchStores(ctx, domain.Filters(filters))
	if !res.OK() {
		return failure(res.Failure)
	}

	sess, _ := c.app.Session.Current()
	admin := sess.Identity.Role == domain.RoleAdmin

	stores := res.Value
	if admin {
		stores = view.Stores(stores, q)
	} else {
		stores = view.BrowseStores(stores, q.Search)
		stores = view.Stores(stores, view.StoreQuery{Address: q.Address, SortBy: q.SortBy, Desc: q.Desc})
	}
	if *where != "" {
		var err error
		if stores, err = view.WhereStores(stores, *where); err != nil {
			return err
		}
	}
	printStores(c.out, stores, !admin)
	return nil
}

func (c *cli) rate(ctx context.Context, args []string) error {
	fs := c.flags("rate")
	var form forms.Rating
	fs.Int64Var(&form.StoreID, "store", 0, "Store id")
	fs.IntVar(&form.Rating, "rating", 0, "Rating from 1 to 5")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := check(form); err != nil {
		return err
	}

	res := c.app.Sync.SubmitRating(ctx, form.StoreID, form.Rating)
	if !res.OK() {
		return failure(res.Failure)
	}
	c.reportMutation(res.Value)

	for _, s := range c.app.Sync.Stores() {
		if s.ID == form.StoreID {
			fmt.Fprintf(c.out, "%s now rated %s\n", s.Name, view.RatingLabel(s.Aggregate()))
		}
	}
	return nil
}
