package main

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/view"
)

const barWidth = 20

func (a *app) pollsCommand() *cli.Command {
	return &cli.Command{
		Name:  "polls",
		Usage: "Create polls and vote",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List polls, newest first",
				Flags: pageFlags(),
				Action: func(c *cli.Context) error {
					polls, err := a.client.Polls.List(c.Context, page(c))
					if err != nil {
						return err
					}
					for _, p := range polls {
						a.printf("#%d %s\n", p.ID, bold(p.Question))
						for _, o := range p.Options {
							a.printf("    %s %s\n", faint("["+itoa(o.ID)+"]"), o.Text)
						}
					}
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create a poll (organizers and admins)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "question", Required: true},
					&cli.StringSliceFlag{Name: "option", Aliases: []string{"o"}, Required: true, Usage: "repeat for each choice"},
					&cli.Int64Flag{Name: "union"},
				},
				Action: func(c *cli.Context) error {
					if _, err := a.organizer(c.Context); err != nil {
						return err
					}
					in := model.PollCreate{Question: c.String("question")}
					for _, text := range c.StringSlice("option") {
						in.Options = append(in.Options, model.PollOptionInput{Text: text})
					}
					if c.IsSet("union") {
						id := c.Int64("union")
						in.UnionID = &id
					}
					p, err := a.client.Polls.Create(c.Context, in)
					if err != nil {
						return err
					}
					a.done("Created poll %q", p.Question)
					a.printf("  ID: %d\n", p.ID)
					return nil
				},
			},
			{
				Name:      "vote",
				Usage:     "Vote once in a poll",
				ArgsUsage: "POLL OPTION",
				Action: func(c *cli.Context) error {
					pollID, err := idArg(c, 0, "poll id")
					if err != nil {
						return err
					}
					optionID, err := idArg(c, 1, "option id")
					if err != nil {
						return err
					}
					if _, err := a.signedIn(c.Context); err != nil {
						return err
					}
					res, err := a.client.Polls.Results(c.Context, pollID)
					if err != nil {
						return err
					}
					card := view.NewPollCard(a.client.Polls, a.session, pollFromResults(*res))
					if err := card.Vote(c.Context, optionID); err != nil {
						return err
					}
					if card.Choice() == optionID {
						a.done("Voted")
					} else {
						a.printf("You already voted in this poll. Current results:\n")
					}
					a.printResults(card)
					return nil
				},
			},
			{
				Name:      "results",
				Usage:     "Show poll tallies",
				ArgsUsage: "POLL",
				Action: func(c *cli.Context) error {
					pollID, err := idArg(c, 0, "poll id")
					if err != nil {
						return err
					}
					res, err := a.client.Polls.Results(c.Context, pollID)
					if err != nil {
						return err
					}
					card := view.NewPollCard(a.client.Polls, a.session, pollFromResults(*res))
					if err := card.LoadResults(c.Context); err != nil {
						return err
					}
					a.printResults(card)
					return nil
				},
			},
		},
	}
}

func pollFromResults(res model.PollResults) model.Poll {
	p := model.Poll{ID: res.PollID, Question: res.Question}
	for _, o := range res.Results {
		p.Options = append(p.Options, model.PollOption{ID: o.OptionID, PollID: res.PollID, Text: o.Text})
	}
	return p
}

func (a *app) printResults(card *view.PollCard) {
	a.printf("\n%s\n", bold(card.Poll.Question))
	for _, o := range card.Poll.Options {
		pct := card.Percent(o.ID)
		filled := pct * barWidth / 100
		bar := strings.Repeat("█", filled) + faint(strings.Repeat("░", barWidth-filled))
		a.printf("  %s %3d%%  %s (%d)\n", bar, pct, o.Text, card.Votes(o.ID))
	}
	a.printf("  %d votes\n", card.TotalVotes())
}
