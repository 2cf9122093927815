package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/view"
)

func (a *app) postsCommand() *cli.Command {
	return &cli.Command{
		Name:  "posts",
		Usage: "Read and write union posts",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List a union's posts",
				Flags: append(pageFlags(),
					&cli.Int64Flag{Name: "union", Required: true},
					&cli.StringFlag{Name: "sort", Value: string(view.SortNew), Usage: "new or top"},
				),
				Action: func(c *cli.Context) error {
					posts, err := a.client.Posts.ListByUnion(c.Context, c.Int64("union"), page(c))
					if err != nil {
						return err
					}
					cards := make([]*view.PostCard, 0, len(posts))
					for _, p := range posts {
						cards = append(cards, view.NewPostCard(p))
					}
					now := time.Now()
					for i, card := range view.SortPosts(cards, view.SortMode(c.String("sort"))) {
						a.printf("%d. %s\n", i+1, bold(card.Post.Title))
						a.printf("   %d pts | %s | #%d\n\n", card.Upvotes(), view.Ago(card.Post.CreatedAt, now), card.Post.ID)
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Show a post with its comments",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "post id")
					if err != nil {
						return err
					}
					p, err := a.client.Posts.Get(c.Context, id)
					if err != nil {
						return err
					}
					now := time.Now()
					a.printf("\n%s\n", bold(p.Title))
					a.printf("  %d pts | %s\n", p.Upvotes, view.Ago(p.CreatedAt, now))
					a.printf("\n  %s\n", p.Content)
					if len(p.Comments) > 0 {
						a.printf("\n  --- Comments (%d) ---\n", len(p.Comments))
						for _, cm := range p.Comments {
							a.printComment(cm, now)
						}
					}
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Post to a union (organizers and admins)",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "union", Required: true},
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "content", Required: true},
				},
				Action: func(c *cli.Context) error {
					if _, err := a.organizer(c.Context); err != nil {
						return err
					}
					p, err := a.client.Posts.Create(c.Context, c.Int64("union"), model.PostCreate{
						Title:   c.String("title"),
						Content: c.String("content"),
					})
					if err != nil {
						return err
					}
					a.done("Posted: %s", p.Title)
					a.printf("  ID: %d\n", p.ID)
					return nil
				},
			},
		},
	}
}

func (a *app) commentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "comments",
		Usage: "Discuss a post",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List a post's comments, oldest first",
				Flags: []cli.Flag{&cli.Int64Flag{Name: "post", Required: true}},
				Action: func(c *cli.Context) error {
					section := view.NewCommentSection(a.client.Comments, a.session, c.Int64("post"))
					if err := section.Load(c.Context); err != nil {
						return err
					}
					now := time.Now()
					for _, cm := range section.Comments() {
						a.printComment(cm, now)
					}
					a.printf("%s\n", faint(fmt.Sprintf("%d comments", section.Count())))
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "Comment on a post",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "post", Required: true},
					&cli.StringFlag{Name: "content", Required: true},
				},
				Action: func(c *cli.Context) error {
					if _, err := a.signedIn(c.Context); err != nil {
						return err
					}
					section := view.NewCommentSection(a.client.Comments, a.session, c.Int64("post"))
					cm, err := section.Add(c.Context, c.String("content"))
					if err != nil {
						return err
					}
					if cm == nil {
						return errEmptyComment
					}
					a.done("Commented on post %d", cm.PostID)
					a.printf("  ID: %d\n", cm.ID)
					return nil
				},
			},
			{
				Name:      "edit",
				Usage:     "Edit one of your comments",
				ArgsUsage: "ID",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "content", Required: true}},
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "comment id")
					if err != nil {
						return err
					}
					if _, err := a.signedIn(c.Context); err != nil {
						return err
					}
					cm, err := view.NewCommentSection(a.client.Comments, a.session, 0).Edit(c.Context, id, c.String("content"))
					if err != nil {
						return err
					}
					if cm == nil {
						return errEmptyComment
					}
					a.done("Edited comment %d", cm.ID)
					return nil
				},
			},
			{
				Name:      "rm",
				Aliases:   []string{"delete"},
				Usage:     "Delete one of your comments",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := idArg(c, 0, "comment id")
					if err != nil {
						return err
					}
					if _, err := a.signedIn(c.Context); err != nil {
						return err
					}
					if err := view.NewCommentSection(a.client.Comments, a.session, 0).Delete(c.Context, id); err != nil {
						return err
					}
					a.done("Deleted comment %d", id)
					return nil
				},
			},
		},
	}
}

func (a *app) feedbackCommand() *cli.Command {
	return &cli.Command{
		Name:  "feedback",
		Usage: "Send feedback, optionally anonymous",
		Subcommands: []*cli.Command{
			{
				Name:  "send",
				Usage: "Send feedback on a post or in general",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "post", Usage: "post id; omit for general feedback"},
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Required: true},
					&cli.BoolFlag{Name: "anonymous"},
				},
				Action: func(c *cli.Context) error {
					if _, err := a.signedIn(c.Context); err != nil {
						return err
					}
					in := model.FeedbackCreate{Message: c.String("message"), Anonymous: c.Bool("anonymous")}
					var fb *model.Feedback
					var err error
					if postID := c.Int64("post"); postID > 0 {
						fb, err = a.client.Feedback.CreateForPost(c.Context, postID, in)
					} else {
						fb, err = a.client.Feedback.Create(c.Context, in)
					}
					if err != nil {
						return err
					}
					a.done("Feedback sent")
					a.printf("  ID: %d\n", fb.ID)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List feedback on a post",
				Flags: append(pageFlags(), &cli.Int64Flag{Name: "post", Required: true}),
				Action: func(c *cli.Context) error {
					items, err := a.client.Feedback.ListByPost(c.Context, c.Int64("post"), page(c))
					if err != nil {
						return err
					}
					now := time.Now()
					for _, fb := range items {
						who := ""
						if fb.Anonymous {
							who = faint(" (anonymous)")
						}
						a.printf("[%d] %s%s %s\n", fb.ID, fb.Message, who, faint(view.Ago(fb.CreatedAt, now)))
					}
					return nil
				},
			},
		},
	}
}

func (a *app) printComment(cm model.Comment, now time.Time) {
	a.printf("  [%d] %s %s\n", cm.ID, bold(cm.User.Username), faint(view.Ago(cm.CreatedAt, now)))
	a.printf("      %s\n", cm.Content)
}
