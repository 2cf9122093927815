package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/view"
)

func eventFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Required: required},
		&cli.StringFlag{Name: "start", Required: required, Usage: `RFC 3339 or "2006-01-02 15:04"`},
		&cli.StringFlag{Name: "end"},
		&cli.StringFlag{Name: "location"},
		&cli.StringFlag{Name: "description"},
		&cli.Int64Flag{Name: "union"},
	}
}

// eventInput overlays the set flags onto base.
func eventInput(c *cli.Context, base model.EventInput) (model.EventInput, error) {
	in := base
	if c.IsSet("title") {
		in.Title = c.String("title")
	}
	if c.IsSet("start") {
		start, err := parseTime(c.String("start"))
		if err != nil {
			return in, err
		}
		in.StartTime = start
	}
	if c.IsSet("end") {
		end, err := parseTime(c.String("end"))
		if err != nil {
			return in, err
		}
		in.EndTime = &end
	}
	if c.IsSet("location") {
		in.Location = c.String("location")
	}
	if c.IsSet("description") {
		in.Description = c.String("description")
	}
	if c.IsSet("union") {
		id := c.Int64("union")
		in.UnionID = &id
	}
	return in, nil
}

func (a *app) eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Plan events and RSVP",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List events",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "mine", Usage: "only events you are attending"},
					&cli.IntFlag{Name: "upcoming", Usage: "only the next N events"},
				},
				Action: func(c *cli.Context) error {
					cal := view.NewCalendar(a.client.Events, a.session)
					if err := cal.Load(c.Context); err != nil {
						return err
					}
					events := cal.Events()
					switch {
					case c.Bool("mine"):
						if _, err := a.signedIn(c.Context); err != nil {
							return err
						}
						cal.PrefetchRSVPStatus(c.Context)
						events = cal.MyEvents()
					case c.IsSet("upcoming"):
						events = cal.Upcoming(time.Now(), c.Int("upcoming"))
					}
					if len(events) == 0 {
						a.printf("No events\n")
						return nil
					}
					for _, ev := range events {
						a.printEventLine(ev)
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Show one event",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "event id")
					if err != nil {
						return err
					}
					ev, err := a.client.Events.Get(c.Context, id)
					if err != nil {
						return err
					}
					a.printf("\n%s\n", bold(ev.Title))
					a.printf("  %s, %s (%s)\n", view.DateString(ev.StartTime), view.TimeRange(*ev, time.Local), humanize.Time(ev.StartTime.Time))
					if loc := model.Deref(ev.Location); loc != "" {
						a.printf("  Where: %s\n", loc)
					}
					if d := model.Deref(ev.Description); d != "" {
						a.printf("\n  %s\n", d)
					}
					a.printf("\n  Organized by %s | %d going\n", ev.Creator.Username, ev.AttendeeCount)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create an event (organizers and admins)",
				Flags: eventFlags(true),
				Action: func(c *cli.Context) error {
					if _, err := a.organizer(c.Context); err != nil {
						return err
					}
					in, err := eventInput(c, model.EventInput{})
					if err != nil {
						return err
					}
					ev, err := a.client.Events.Create(c.Context, in)
					if err != nil {
						return err
					}
					a.done("Created event %s", ev.Title)
					a.printf("  ID: %d\n", ev.ID)
					return nil
				},
			},
			{
				Name:      "update",
				Usage:     "Change an event you created",
				ArgsUsage: "ID",
				Flags:     eventFlags(false),
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "event id")
					if err != nil {
						return err
					}
					if _, err := a.signedIn(c.Context); err != nil {
						return err
					}
					current, err := a.client.Events.Get(c.Context, id)
					if err != nil {
						return err
					}
					in, err := eventInput(c, model.EventInput{
						Title:       current.Title,
						Description: model.Deref(current.Description),
						Location:    model.Deref(current.Location),
						StartTime:   current.StartTime,
						EndTime:     current.EndTime,
						UnionID:     current.UnionID,
					})
					if err != nil {
						return err
					}
					ev, err := a.client.Events.Update(c.Context, id, in)
					if err != nil {
						return err
					}
					a.done("Updated event %s", ev.Title)
					return nil
				},
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete an event you created",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "event id")
					if err != nil {
						return err
					}
					if _, err := a.signedIn(c.Context); err != nil {
						return err
					}
					msg, err := a.client.Events.Delete(c.Context, id)
					if err != nil {
						return err
					}
					a.done("%s", msg.Message)
					return nil
				},
			},
			{
				Name:      "rsvp",
				Usage:     "Say you are going",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					return a.rsvp(c, true)
				},
			},
			{
				Name:      "cancel",
				Usage:     "Withdraw your RSVP",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					return a.rsvp(c, false)
				},
			},
			{
				Name:      "attendees",
				Usage:     "List who is going",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "event id")
					if err != nil {
						return err
					}
					att, err := a.client.Events.Attendees(c.Context, id)
					if err != nil {
						return err
					}
					a.printf("%d going\n", att.AttendeeCount)
					for _, at := range att.Attendees {
						a.printf("  %s\n", at.Username)
					}
					return nil
				},
			},
		},
	}
}

func (a *app) rsvp(c *cli.Context, attend bool) error {
	id, err := idArg(c, 0, "event id")
	if err != nil {
		return err
	}
	if _, err := a.signedIn(c.Context); err != nil {
		return err
	}
	cal := view.NewCalendar(a.client.Events, a.session)
	ev, err := a.client.Events.Get(c.Context, id)
	if err != nil {
		return err
	}
	cal.Put(*ev)
	if attend {
		err = cal.RSVP(c.Context, id)
	} else {
		err = cal.CancelRSVP(c.Context, id)
	}
	if err != nil {
		return err
	}
	updated, _ := cal.Event(id)
	if attend {
		a.done("Going to %s (%d going)", updated.Title, updated.AttendeeCount)
	} else {
		a.done("No longer going to %s (%d going)", updated.Title, updated.AttendeeCount)
	}
	return nil
}

func (a *app) printEventLine(ev model.Event) {
	a.printf("#%d %s %s  %s | %d going\n",
		ev.ID, view.DateString(ev.StartTime), faint(view.TimeRange(ev, time.Local)), bold(ev.Title), ev.AttendeeCount)
}
