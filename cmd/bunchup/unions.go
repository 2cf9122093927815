package main

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/view"
)

func (a *app) unionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "unions",
		Usage: "Browse, create and join unions",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List unions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "industry"},
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}},
				},
				Action: func(c *cli.Context) error {
					dir := view.NewUnionDirectory(a.client.Unions, a.session)
					if err := dir.Load(c.Context); err != nil {
						return err
					}
					unions := dir.Filter(c.String("industry"), c.String("search"))
					if len(unions) == 0 {
						a.printf("No unions found\n")
						return nil
					}
					for _, u := range unions {
						a.printUnionLine(u)
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Show one union with its posts",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "union id")
					if err != nil {
						return err
					}
					u, err := a.client.Unions.Get(c.Context, id)
					if err != nil {
						return err
					}
					a.printf("\n%s\n", bold(u.Name))
					if d := model.Deref(u.Description); d != "" {
						a.printf("  %s\n", d)
					}
					if ind := model.Deref(u.Industry); ind != "" {
						a.printf("  Industry: %s\n", ind)
					}
					if tags := view.Tags(*u); len(tags) > 0 {
						a.printf("  Tags: %s\n", strings.Join(tags, ", "))
					}
					a.printf("  Members: %d | Created %s\n", u.MemberCount, humanize.Time(u.CreatedAt.Time))
					if len(u.Posts) > 0 {
						a.printf("\n  --- Posts (%d) ---\n", len(u.Posts))
						for _, p := range u.Posts {
							a.printf("  #%d %s\n", p.ID, p.Title)
						}
					}
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create a union (organizers and admins)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "industry"},
					&cli.StringFlag{Name: "tags", Usage: "comma separated"},
				},
				Action: func(c *cli.Context) error {
					if _, err := a.organizer(c.Context); err != nil {
						return err
					}
					u, err := a.client.Unions.Create(c.Context, model.UnionCreate{
						Name:        c.String("name"),
						Description: c.String("description"),
						Industry:    c.String("industry"),
						Tags:        c.String("tags"),
					})
					if err != nil {
						return err
					}
					a.done("Created union %s", u.Name)
					a.printf("  ID: %d\n", u.ID)
					return nil
				},
			},
			{
				Name:  "industries",
				Usage: "List the industries unions are filed under",
				Action: func(c *cli.Context) error {
					industries, err := a.client.Unions.Industries(c.Context)
					if err != nil {
						return err
					}
					for _, ind := range industries {
						a.printf("%s\n", ind)
					}
					return nil
				},
			},
			{
				Name:      "join",
				Usage:     "Join a union",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "union id")
					if err != nil {
						return err
					}
					if _, err := a.signedIn(c.Context); err != nil {
						return err
					}
					msg, err := a.client.Unions.Join(c.Context, id)
					if err != nil {
						return err
					}
					a.done("%s", msg.Message)
					return nil
				},
			},
			{
				Name:      "leave",
				Usage:     "Leave a union",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "union id")
					if err != nil {
						return err
					}
					if _, err := a.signedIn(c.Context); err != nil {
						return err
					}
					msg, err := a.client.Unions.Leave(c.Context, id)
					if err != nil {
						return err
					}
					a.done("%s", msg.Message)
					return nil
				},
			},
			{
				Name:      "members",
				Usage:     "List the members of a union",
				ArgsUsage: "ID",
				Flags:     pageFlags(),
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "union id")
					if err != nil {
						return err
					}
					members, err := a.client.Unions.Members(c.Context, id, page(c))
					if err != nil {
						return err
					}
					for _, m := range members {
						a.printf("%-20s %s\n", m.Username, faint(string(m.Role)))
					}
					return nil
				},
			},
		},
	}
}

func (a *app) printUnionLine(u model.Union) {
	member := ""
	if u.IsMember {
		member = okMark(" (member)")
	}
	industry := model.Deref(u.Industry)
	if industry != "" {
		industry = faint(" [" + industry + "]")
	}
	a.printf("#%d %s%s | %s%s\n", u.ID, bold(u.Name), industry, humanize.Comma(int64(u.MemberCount))+" members", member)
}
