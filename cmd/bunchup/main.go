package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/bunchup/bunchup/internal/client"
	"github.com/bunchup/bunchup/internal/config"
	"github.com/bunchup/bunchup/internal/log"
	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/session"
	"github.com/bunchup/bunchup/internal/tokenstore"
	"github.com/bunchup/bunchup/internal/view"
)

const version = "0.1.0"

var (
	errSignIn    = errors.New("sign in first: bunchup login")
	errOrganizer = errors.New("only organizers and admins can do that")

	errEmptyComment = errors.New("comment cannot be empty")
	errNoAPIBase    = errors.New("no API base URL: pass --api or set BUNCHUP_API_BASE")
)

var (
	okMark = color.New(color.FgGreen).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// app is shared by every command. setup fills it before any action runs.
type app struct {
	cfg     config.Config
	out     io.Writer
	client  *client.Client
	session *session.Session
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	a := &app{out: out}
	return &cli.App{
		Name:    "bunchup",
		Usage:   "Union organizing from the terminal",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Usage: "API base URL (default: $BUNCHUP_API_BASE)"},
			&cli.StringFlag{Name: "token-file", Usage: "where the sign-in token is kept (default: $BUNCHUP_TOKEN_FILE)"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "silence log output"},
		},
		Before: a.setup,
		Commands: []*cli.Command{
			a.registerCommand(),
			a.loginCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.unionsCommand(),
			a.postsCommand(),
			a.commentsCommand(),
			a.feedbackCommand(),
			a.eventsCommand(),
			a.pollsCommand(),
			a.askCommand(),
			a.serverCommand(),
		},
	}
}

func (a *app) setup(c *cli.Context) error {
	a.cfg = config.Load()
	if v := c.String("api"); v != "" {
		a.cfg.Client.APIBase = v
	}
	if v := c.String("token-file"); v != "" {
		a.cfg.Client.TokenFile = v
	}
	if c.Bool("quiet") {
		log.SetOutput(io.Discard)
	}
	if a.cfg.Client.APIBase == "" {
		return errNoAPIBase
	}

	a.client = client.New(a.cfg.Client.APIBase, tokenstore.NewFile(a.cfg.Client.TokenFile))
	if a.cfg.Client.Timeout > 0 {
		a.client.HTTPClient.Timeout = a.cfg.Client.Timeout
	}
	a.session = session.New(a.client)
	return nil
}

// signedIn runs the startup check and returns the current user, or errSignIn.
func (a *app) signedIn(ctx context.Context) (*model.User, error) {
	if err := a.session.Start(ctx); err != nil {
		return nil, err
	}
	user, err := a.session.Require()
	if err != nil {
		return nil, errSignIn
	}
	return user, nil
}

func (a *app) organizer(ctx context.Context) (*model.User, error) {
	user, err := a.signedIn(ctx)
	if err != nil {
		return nil, err
	}
	if !view.DashboardFor(user.Role).CanOrganize() {
		return nil, errOrganizer
	}
	return user, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) done(format string, args ...any) {
	fmt.Fprintf(a.out, "%s %s\n", okMark("✓"), fmt.Sprintf(format, args...))
}

// idArg parses the n-th positional argument as a resource id.
func idArg(c *cli.Context, n int, name string) (int64, error) {
	raw := c.Args().Get(n)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "skip", Usage: "entries to skip"},
		&cli.IntFlag{Name: "limit", Usage: "maximum entries to return"},
	}
}

func page(c *cli.Context) client.Page {
	return client.Page{Skip: c.Int("skip"), Limit: c.Int("limit")}
}

// parseTime accepts RFC 3339 or "2006-01-02 15:04" in local time.
func parseTime(raw string) (model.Timestamp, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return model.NewTimestamp(t), nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", raw, time.Local)
	if err != nil {
		return model.Timestamp{}, fmt.Errorf("invalid time %q: use RFC 3339 or \"2006-01-02 15:04\"", raw)
	}
	return model.NewTimestamp(t), nil
}
