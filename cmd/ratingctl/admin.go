package main

import (
	"context"
	"fmt"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/core/ports"
	"github.com/storerate/rating-client/internal/forms"
	"github.com/storerate/rating-client/internal/infrastructure/queue"
	"github.com/storerate/rating-client/internal/view"
)

const (
	topRatedLimit    = 5
	recentUsersLimit = 5
)

func (c *cli) users(ctx context.Context, args []string) error {
	fs := c.flags("users")
	filters := filterFlag{}
	var q view.UserQuery
	fs.Var(filters, "filter", "Server-side filter key=value (repeatable)")
	fs.StringVar(&q.Search, "search", "", "Match name, email or address")
	fs.StringVar(&q.Role, "role", "all", "Role to show: all, admin, user, owner")
	fs.StringVar(&q.SortBy, "sort", "", "Sort by name, email or role")
	fs.BoolVar(&q.Desc, "desc", false, "Reverse the sort order")
	where := fs.String("where", "", `Expression filter, e.g. 'role == "owner" && !hasStore'`)
	if err := c.parse(fs, args); err != nil {
		return err
	}

	res := c.app.Sync.FetchUsers(ctx, domain.Filters(filters))
	if !res.OK() {
		return failure(res.Failure)
	}
	users := view.Users(res.Value, q)
	if *where != "" {
		var err error
		if users, err = view.WhereUsers(users, *where); err != nil {
			return err
		}
	}
	printUsers(c.out, users)
	return nil
}

func (c *cli) addUser(ctx context.Context, args []string) error {
	fs := c.flags("add-user")
	var form forms.NewUser
	fs.StringVar(&form.Name, "name", "", "Full name, 20 to 60 characters")
	fs.StringVar(&form.Email, "email", "", "Email address")
	fs.StringVar(&form.Address, "address", "", "Address, up to 400 characters")
	fs.StringVar(&form.Role, "role", string(domain.RoleUser), "admin, user or owner")
	fs.StringVar(&form.Password, "password", "", "Initial password (prompted when empty)")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := c.ask(&form.Password, "Password: ", true); err != nil {
		return err
	}
	if err := check(form); err != nil {
		return err
	}

	res := c.app.Sync.AddUser(ctx, form.Profile())
	if !res.OK() {
		return failure(res.Failure)
	}
	c.reportMutation(res.Value)
	return nil
}

func (c *cli) owners(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("owners"), args); err != nil {
		return err
	}
	res := c.app.Sync.ListOwners(ctx)
	if !res.OK() {
		return failure(res.Failure)
	}
	if len(res.Value) == 0 {
		fmt.Fprintln(c.out, "No owners without a store")
		return nil
	}
	rows := make([][]string, 0, len(res.Value))
	for _, o := range res.Value {
		rows = append(rows, []string{fmt.Sprint(o.ID), o.Name, o.Email})
	}
	table(c.out, []string{"ID", "NAME", "EMAIL"}, rows)
	return nil
}

func (c *cli) addStore(ctx context.Context, args []string) error {
	fs := c.flags("add-store")
	var form forms.NewStore
	fs.StringVar(&form.Name, "name", "", "Store name, 20 to 60 characters")
	fs.StringVar(&form.Email, "email", "", "Store email address")
	fs.StringVar(&form.Address, "address", "", "Address, up to 400 characters")
	owner := fs.Int64("owner", 0, "Owner account id (see 'ratingctl owners')")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if *owner != 0 {
		form.OwnerID = owner
	}
	if err := check(form); err != nil {
		return err
	}

	res := c.app.Sync.AddStore(ctx, form.Profile())
	if !res.OK() {
		return failure(res.Failure)
	}
	c.reportMutation(res.Value)
	return nil
}

func (c *cli) adminDashboard(ctx context.Context, d *domain.AdminDashboard) {
	fmt.Fprintf(c.out, "Users: %d  Stores: %d  Ratings: %d  Average: %s\n",
		d.TotalUsers, d.TotalStores, d.TotalRatings, view.RatingLabel(d.AverageRating))

	results := c.app.Refresher.RefreshAll(ctx,
		queue.RefreshJob{Collection: ports.CollectionStores},
		queue.RefreshJob{Collection: ports.CollectionUsers},
	)
	for _, r := range results {
		if r.Failure != nil {
			fmt.Fprintf(c.err, "warning: %s not loaded: %s\n", r.Job.Collection, r.Failure.Message)
		}
	}

	fmt.Fprintln(c.out, "\nTop rated stores:")
	printStores(c.out, view.TopRated(c.app.Sync.Stores(), topRatedLimit), false)
	fmt.Fprintln(c.out, "\nRecent users:")
	printUsers(c.out, view.RecentUsers(c.app.Sync.Users(), recentUsersLimit))
}

func (c *cli) reportMutation(out domain.MutationOutcome) {
	fmt.Fprintln(c.out, out.Message)
	if !out.Reconciled && out.ReconcileFailure != nil {
		fmt.Fprintf(c.err, "warning: saved, but the refreshed list could not be loaded: %s\n", out.ReconcileFailure.Message)
	}
}
