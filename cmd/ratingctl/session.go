package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/storerate/rating-client/internal/forms"
)

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password (prompted when empty)")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := c.ask(email, "Email: ", false); err != nil {
		return err
	}
	if err := c.ask(password, "Password: ", true); err != nil {
		return err
	}
	if err := check(forms.Login{Email: *email, Password: *password}); err != nil {
		return err
	}

	res := c.app.Session.Login(ctx, *email, *password)
	if !res.OK() {
		return errors.New(res.Failure.Message)
	}
	fmt.Fprintf(c.out, "Logged in as %s (%s)\n", res.Value.Name, res.Value.Role.DisplayName())
	return nil
}

func (c *cli) signup(ctx context.Context, args []string) error {
	fs := c.flags("signup")
	var form forms.Signup
	fs.StringVar(&form.Name, "name", "", "Full name, 20 to 60 characters")
	fs.StringVar(&form.Email, "email", "", "Email address")
	fs.StringVar(&form.Address, "address", "", "Address, up to 400 characters")
	fs.StringVar(&form.Password, "password", "", "Password (prompted when empty)")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := c.ask(&form.Password, "Password: ", true); err != nil {
		return err
	}
	if err := check(form); err != nil {
		return err
	}

	res := c.app.Session.Signup(ctx, form.Profile())
	if !res.OK() {
		return errors.New(res.Failure.Message)
	}
	fmt.Fprintln(c.out, res.Value)
	return nil
}

func (c *cli) logout(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("logout"), args); err != nil {
		return err
	}
	c.app.Session.Logout(ctx)
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c *cli) whoami(_ context.Context, args []string) error {
	if err := c.parse(c.flags("whoami"), args); err != nil {
		return err
	}
	sess, ok := c.app.Session.Current()
	if !ok {
		fmt.Fprintln(c.out, "Not logged in")
		return nil
	}
	u := sess.Identity
	fmt.Fprintf(c.out, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(c.out, "Role: %s\n", u.Role.DisplayName())
	if u.StoreID != nil {
		fmt.Fprintf(c.out, "Store: #%d\n", *u.StoreID)
	}
	return nil
}

func (c *cli) passwd(ctx context.Context, args []string) error {
	fs := c.flags("passwd")
	var form forms.PasswordChange
	fs.StringVar(&form.OldPassword, "old", "", "Current password (prompted when empty)")
	fs.StringVar(&form.NewPassword, "new", "", "New password (prompted when empty)")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	newGiven := form.NewPassword != ""
	if err := c.ask(&form.OldPassword, "Current password: ", true); err != nil {
		return err
	}
	if err := c.ask(&form.NewPassword, "New password: ", true); err != nil {
		return err
	}
	if newGiven {
		form.ConfirmPassword = form.NewPassword
	} else if err := c.ask(&form.ConfirmPassword, "Confirm new password: ", true); err != nil {
		return err
	}
	if err := check(form); err != nil {
		return err
	}

	res := c.app.Session.UpdatePassword(ctx, form.OldPassword, form.NewPassword)
	if !res.OK() {
		return failure(res.Failure)
	}
	fmt.Fprintln(c.out, res.Value)
	return nil
}
