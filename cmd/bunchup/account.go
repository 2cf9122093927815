package main

import (
	"errors"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/session"
	"github.com/bunchup/bunchup/internal/view"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
		&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
	}
}

func (a *app) registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account",
		Flags: append(credentialFlags(),
			&cli.StringFlag{Name: "role", Usage: "member, organizer or admin", Value: string(model.RoleMember)},
		),
		Action: func(c *cli.Context) error {
			user, err := a.session.Register(c.Context, c.String("username"), c.String("password"), model.Role(c.String("role")))
			if err != nil {
				return err
			}
			a.done("Registered %s (%s)", user.Username, user.Role)
			a.printf("\nNext: bunchup login -u %s -p <password>\n", user.Username)
			return nil
		},
	}
}

func (a *app) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and remember the token",
		Flags: credentialFlags(),
		Action: func(c *cli.Context) error {
			user, err := a.session.SignIn(c.Context, c.String("username"), c.String("password"))
			if err != nil {
				return err
			}
			a.done("Signed in as %s (%s)", user.Username, user.Role)
			return nil
		},
	}
}

func (a *app) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored token",
		Action: func(c *cli.Context) error {
			if err := a.session.SignOut(c.Context); err != nil {
				return err
			}
			a.done("Signed out")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in account and what it may do",
		Action: func(c *cli.Context) error {
			if err := a.session.Start(c.Context); err != nil {
				return err
			}
			if a.session.State() != session.Authenticated {
				a.printf("Not signed in\n\nRun: bunchup login -u <username> -p <password>\n")
				return nil
			}
			user := a.session.User()
			dash := view.DashboardFor(user.Role)
			a.printf("User:   %s\n", bold(user.Username))
			a.printf("Role:   %s (%s)\n", dash.Title, dash.Description)
			a.printf("Joined: %s\n", humanize.Time(user.CreatedAt.Time))
			a.printf("\nPermissions:\n")
			for _, p := range dash.Permissions {
				mark := faint("-")
				if p.Granted {
					mark = okMark("✓")
				}
				a.printf("  %s %s\n", mark, p.Name)
			}
			return nil
		},
	}
}

func (a *app) askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask the union assistant",
		ArgsUsage: "QUESTION",
		Action: func(c *cli.Context) error {
			question := c.Args().First()
			if question == "" {
				return errors.New("missing QUESTION")
			}
			reply, err := view.NewAssistant(a.client.Chatbot).Send(c.Context, question)
			if err != nil {
				return err
			}
			a.printf("%s\n", reply.Text)
			for _, s := range reply.Suggestions {
				a.printf("  • %s\n", s)
			}
			return nil
		},
	}
}
