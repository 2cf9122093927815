package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/bunchup/bunchup/internal/client"
	"github.com/bunchup/bunchup/internal/log"
	"github.com/bunchup/bunchup/internal/model"
)

const password = "organize123"

var people = []struct {
	name string
	role model.Role
}{
	{"rosa", model.RoleAdmin},
	{"cesar", model.RoleOrganizer},
	{"dolores", model.RoleOrganizer},
	{"walter", model.RoleMember},
	{"lucy", model.RoleMember},
	{"mother_jones", model.RoleMember},
}

var unions = []model.UnionCreate{
	{Name: "Nurses United", Description: "Safe staffing and fair shifts for hospital nurses", Industry: "Healthcare", Tags: "staffing, shifts, hospitals"},
	{Name: "Teachers Guild", Description: "K-12 educators bargaining together", Industry: "Education", Tags: "classrooms, pay"},
	{Name: "Warehouse Workers Alliance", Description: "Breaks, heat safety and scheduling", Industry: "Logistics", Tags: "safety, breaks, overtime"},
	{Name: "Baristas Collective", Description: "Tips, hours and predictable schedules", Industry: "Hospitality", Tags: "tips, scheduling"},
}

var posts = []model.PostCreate{
	{Title: "Staffing ratios survey results", Content: "Thanks to everyone who answered. Summary inside."},
	{Title: "Bargaining update: week 3", Content: "Management moved on wages but not on breaks."},
	{Title: "Know your rights: overtime", Content: "How overtime is calculated and what to log."},
	{Title: "Heat safety checklist", Content: "Water, rest and shade. Report violations here."},
	{Title: "Schedule posting two weeks ahead", Content: "Our proposal for predictable scheduling."},
	{Title: "Welcome new members!", Content: "Introduce yourself in the comments."},
}

var comments = []string{
	"Count me in.",
	"Can we get this translated for the night shift?",
	"This matches what I've seen on my floor.",
	"Who do I talk to about logging missed breaks?",
	"Great work, thank you organizers.",
	"Let's bring this up at the next meeting.",
	"Same thing is happening at the other site.",
}

var events = []struct {
	title    string
	location string
	in       time.Duration
	length   time.Duration
}{
	{"General membership meeting", "Union hall", 48 * time.Hour, 2 * time.Hour},
	{"Picket at main entrance", "Main gate", 5 * 24 * time.Hour, 3 * time.Hour},
	{"Know your rights workshop", "Library room B", 9 * 24 * time.Hour, 90 * time.Minute},
	{"Bargaining committee", "Online", 12 * 24 * time.Hour, 0},
}

var polls = []model.PollCreate{
	{Question: "Should we authorize a strike vote?", Options: []model.PollOptionInput{{Text: "Yes"}, {Text: "No"}, {Text: "Need more info"}}},
	{Question: "Best time for the next meeting?", Options: []model.PollOptionInput{{Text: "Weekday evening"}, {Text: "Saturday morning"}, {Text: "Sunday afternoon"}}},
}

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "Fill a BunchUp development server with sample data",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8000", Usage: "BunchUp API base URL"},
		},
		Action: func(c *cli.Context) error {
			return seed(c.Context, c.String("url"))
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Error.Fatalf("seed: %v", err)
	}
}

func seed(ctx context.Context, baseURL string) error {
	log.Info.Printf("Seeding %s...", baseURL)

	var clients []*client.Client
	var organizers []*client.Client
	for _, p := range people {
		c := client.New(baseURL, nil)
		if _, err := c.Auth.Register(ctx, p.name, password, p.role); err != nil {
			return fmt.Errorf("register %s: %w", p.name, err)
		}
		tok, err := c.Auth.Login(ctx, p.name, password)
		if err != nil {
			return fmt.Errorf("login %s: %w", p.name, err)
		}
		if err := c.Tokens.Save(ctx, tok.AccessToken); err != nil {
			return err
		}
		log.Info.Printf("✓ Registered %s (%s)", p.name, p.role)
		clients = append(clients, c)
		if p.role.CanOrganize() {
			organizers = append(organizers, c)
		}
	}

	var unionIDs []int64
	for _, in := range unions {
		u, err := organizers[rand.Intn(len(organizers))].Unions.Create(ctx, in)
		if err != nil {
			log.Warn.Printf("✗ Failed to create union %s: %v", in.Name, err)
			continue
		}
		unionIDs = append(unionIDs, u.ID)
		log.Info.Printf("✓ Union #%d: %s", u.ID, u.Name)
	}

	if len(unionIDs) == 0 {
		return fmt.Errorf("no unions could be created")
	}

	// Everyone joins a random half of the unions.
	for _, c := range clients {
		for _, id := range unionIDs {
			if rand.Float32() < 0.5 {
				continue
			}
			if _, err := c.Unions.Join(ctx, id); err != nil {
				log.Warn.Printf("✗ Failed to join union %d: %v", id, err)
			}
		}
	}

	var postIDs []int64
	for _, in := range posts {
		unionID := unionIDs[rand.Intn(len(unionIDs))]
		p, err := organizers[rand.Intn(len(organizers))].Posts.Create(ctx, unionID, in)
		if err != nil {
			log.Warn.Printf("✗ Failed to post: %v", err)
			continue
		}
		postIDs = append(postIDs, p.ID)
		log.Info.Printf("✓ Post #%d: %s", p.ID, p.Title)
	}

	for _, postID := range postIDs {
		n := rand.Intn(4) + 1
		for i := 0; i < n; i++ {
			c := clients[rand.Intn(len(clients))]
			cm, err := c.Comments.Create(ctx, postID, comments[rand.Intn(len(comments))])
			if err != nil {
				log.Warn.Printf("✗ Failed to comment: %v", err)
				continue
			}
			log.Info.Printf("✓ Comment #%d on post #%d", cm.ID, postID)
		}
		if rand.Float32() < 0.5 {
			c := clients[rand.Intn(len(clients))]
			if _, err := c.Feedback.CreateForPost(ctx, postID, model.FeedbackCreate{Message: "Could we get more detail on this?", Anonymous: true}); err != nil {
				log.Warn.Printf("✗ Failed to send feedback: %v", err)
			}
		}
	}

	var eventIDs []int64
	for _, e := range events {
		start := model.NewTimestamp(time.Now().Add(e.in).Truncate(time.Hour))
		in := model.EventInput{Title: e.title, Location: e.location, StartTime: start}
		if e.length > 0 {
			end := model.NewTimestamp(start.Add(e.length))
			in.EndTime = &end
		}
		unionID := unionIDs[rand.Intn(len(unionIDs))]
		in.UnionID = &unionID
		ev, err := organizers[rand.Intn(len(organizers))].Events.Create(ctx, in)
		if err != nil {
			log.Warn.Printf("✗ Failed to create event: %v", err)
			continue
		}
		eventIDs = append(eventIDs, ev.ID)
		log.Info.Printf("✓ Event #%d: %s", ev.ID, ev.Title)
	}
	for _, c := range clients {
		for _, id := range eventIDs {
			if rand.Float32() < 0.6 {
				_, _ = c.Events.RSVP(ctx, id)
			}
		}
	}
	log.Info.Printf("✓ Added RSVPs")

	pollCount := 0
	for _, in := range polls {
		p, err := organizers[rand.Intn(len(organizers))].Polls.Create(ctx, in)
		if err != nil {
			log.Warn.Printf("✗ Failed to create poll: %v", err)
			continue
		}
		pollCount++
		for _, c := range clients {
			opt := p.Options[rand.Intn(len(p.Options))]
			if _, err := c.Polls.Vote(ctx, p.ID, opt.ID); err != nil && !client.IsAlreadyVoted(err) {
				log.Warn.Printf("✗ Failed to vote: %v", err)
			}
		}
		log.Info.Printf("✓ Poll #%d: %s", p.ID, p.Question)
	}

	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("People:  %d (password %q)\n", len(people), password)
	fmt.Printf("Unions:  %d\n", len(unionIDs))
	fmt.Printf("Posts:   %d\n", len(postIDs))
	fmt.Printf("Events:  %d\n", len(eventIDs))
	fmt.Printf("Polls:   %d\n", pollCount)
	fmt.Println("\nTry:", "bunchup --api", baseURL, "login -u rosa -p", password)
	return nil
}
