// Package view holds the presentation state behind each screen: what the
// user sees, which controls are busy, and the local-only adjustments made
// before or without a server round trip.
package view

import (
	"cmp"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bunchup/bunchup/internal/model"
)

// Identity gates mutations. *session.Session satisfies it.
type Identity interface {
	Require() (*model.User, error)
}

type VoteDir int

const (
	NoVote VoteDir = iota
	Upvote
	Downvote
)

// PostCard pairs a server post with the viewer's local vote. The vote is
// display-only and is never sent anywhere. PostCard is not safe for
// concurrent use.
type PostCard struct {
	Post model.Post
	base int
	vote VoteDir
}

func NewPostCard(p model.Post) *PostCard {
	return &PostCard{Post: p, base: p.Upvotes}
}

// Vote toggles: repeating the current direction clears it, the other
// direction replaces it.
func (c *PostCard) Vote(v VoteDir) {
	if c.vote == v {
		c.vote = NoVote
		return
	}
	c.vote = v
}

func (c *PostCard) MyVote() VoteDir {
	return c.vote
}

// Upvotes is the server count adjusted by the local vote.
func (c *PostCard) Upvotes() int {
	switch c.vote {
	case Upvote:
		return c.base + 1
	case Downvote:
		return c.base - 1
	}
	return c.base
}

// Sync takes a fresh copy of the post. A changed server count discards the
// local vote.
func (c *PostCard) Sync(p model.Post) {
	if p.Upvotes != c.base {
		c.base = p.Upvotes
		c.vote = NoVote
	}
	c.Post = p
}

type SortMode string

const (
	SortNew SortMode = "new"
	SortTop SortMode = "top"
)

// SortPosts returns a sorted copy. Ties fall back to newest first.
func SortPosts(cards []*PostCard, mode SortMode) []*PostCard {
	out := slices.Clone(cards)
	newest := func(a, b *PostCard) int {
		if c := b.Post.CreatedAt.Compare(a.Post.CreatedAt.Time); c != 0 {
			return c
		}
		return cmp.Compare(b.Post.ID, a.Post.ID)
	}
	switch mode {
	case SortTop:
		slices.SortStableFunc(out, func(a, b *PostCard) int {
			if c := cmp.Compare(b.Upvotes(), a.Upvotes()); c != 0 {
				return c
			}
			return newest(a, b)
		})
	default:
		slices.SortStableFunc(out, newest)
	}
	return out
}

// Ago renders a timestamp the way comment and post headers show it.
func Ago(t model.Timestamp, now time.Time) string {
	d := now.Sub(t.Time)
	switch {
	case d < time.Minute:
		return "just now"
	case d < 7*24*time.Hour:
		return humanize.RelTime(t.Time, now, "ago", "from now")
	}
	return DateString(t)
}
