package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/storerate/rating-client/internal/app"
	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/forms"
)

type command struct {
	summary string
	run     func(c *cli, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":     {"Log in and remember the session", (*cli).login},
	"signup":    {"Register a new user account", (*cli).signup},
	"logout":    {"Forget the current session", (*cli).logout},
	"whoami":    {"Show the current identity", (*cli).whoami},
	"passwd":    {"Change your password", (*cli).passwd},
	"users":     {"List users (admin)", (*cli).users},
	"add-user":  {"Create a user (admin)", (*cli).addUser},
	"owners":    {"List owners without a store (admin)", (*cli).owners},
	"stores":    {"List stores", (*cli).stores},
	"add-store": {"Create a store (admin)", (*cli).addStore},
	"rate":      {"Rate a store (user)", (*cli).rate},
	"dashboard": {"Show your dashboard (admin, owner)", (*cli).dashboard},
	"ratings":   {"List your store's ratings (owner)", (*cli).ratings},
}

type cli struct {
	app *app.App
	in  *bufio.Reader
	out io.Writer
	err io.Writer
	// secret reads a value without echo when stdin is a terminal.
	secret func(prompt string) (string, error)
}

func newCLI(a *app.App, in io.Reader, out, errOut io.Writer) *cli {
	c := &cli{app: a, in: bufio.NewReader(in), out: out, err: errOut}
	c.secret = c.readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.secret = func(prompt string) (string, error) {
			fmt.Fprint(c.err, prompt)
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(c.err)
			return string(b), errors.Wrap(err, "read password")
		}
	}
	return c
}

func (c *cli) run(ctx context.Context, args []string) error {
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(c.err)
		return errors.Errorf("unknown command %q", args[0])
	}
	err := cmd.run(c, ctx, args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.err)
	return fs
}

func (c *cli) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errors.Wrapf(err, "failed to parse %s flags", fs.Name())
	}
	if fs.NArg() > 0 {
		return errors.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return nil
}

func (c *cli) readLine(prompt string) (string, error) {
	fmt.Fprint(c.err, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ask returns v, or prompts for it when empty.
func (c *cli) ask(v *string, prompt string, secret bool) error {
	if *v != "" {
		return nil
	}
	read := c.readLine
	if secret {
		read = c.secret
	}
	s, err := read(prompt)
	if err != nil {
		return err
	}
	*v = s
	return nil
}

// check validates a form before any network call.
func check(form any) error {
	if err := forms.Check(form); err != nil {
		return errors.Wrap(err, "invalid input")
	}
	return nil
}

// failure turns a failed result into the error shown to the user.
func failure(f *domain.Failure) error {
	if f == nil {
		return errors.New("unknown failure")
	}
	if f.Kind == domain.KindUnauthenticated {
		return errors.Errorf("%s (run 'ratingctl login')", f.Message)
	}
	return errors.New(f.Message)
}

// filterFlag collects repeated -filter key=value pairs.
type filterFlag domain.Filters

func (f filterFlag) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k+"="+f[k])
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func (f filterFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return errors.Errorf("filter %q is not key=value", s)
	}
	f[k] = v
	return nil
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: ratingctl <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	for _, n := range names {
		fmt.Fprintf(w, "  %-10s  %s\n", n, commands[n].summary)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Use 'ratingctl <command> -h' for more information about a command.")
}
