package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bunchup/bunchup/internal/client"
	"github.com/bunchup/bunchup/internal/inflight"
	"github.com/bunchup/bunchup/internal/model"
)

// ErrAlreadyVoted is the local refusal of a second vote from the same card.
var ErrAlreadyVoted = errors.New("you have already voted in this poll")

type PollAPI interface {
	Vote(ctx context.Context, pollID, optionID int64) (*model.PollResults, error)
	Results(ctx context.Context, pollID int64) (*model.PollResults, error)
}

// PollCard is one poll with its tallies. Once a vote is cast, or the server
// says one already was, the card only shows results.
type PollCard struct {
	Poll model.Poll

	api     PollAPI
	who     Identity
	pending *inflight.Tracker

	mu      sync.Mutex
	voted   bool
	choice  int64
	results *model.PollResults
}

func NewPollCard(api PollAPI, who Identity, p model.Poll) *PollCard {
	return &PollCard{Poll: p, api: api, who: who, pending: inflight.New()}
}

func (c *PollCard) HasVoted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voted
}

// Choice is the option voted for from this card, or zero.
func (c *PollCard) Choice() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.choice
}

func (c *PollCard) Submitting() bool {
	return c.pending.Busy("vote")
}

// Vote casts a vote and replaces the tallies with the server's. When the
// server reports an earlier vote the card switches to results and Vote
// returns nil.
func (c *PollCard) Vote(ctx context.Context, optionID int64) error {
	if _, err := c.who.Require(); err != nil {
		return err
	}
	if !c.hasOption(optionID) {
		return fmt.Errorf("option %d is not part of poll %d", optionID, c.Poll.ID)
	}
	if c.HasVoted() {
		return ErrAlreadyVoted
	}
	release, ok := c.pending.Begin("vote")
	if !ok {
		return inflight.ErrBusy
	}
	defer release()

	res, err := c.api.Vote(ctx, c.Poll.ID, optionID)
	if err != nil {
		if !client.IsAlreadyVoted(err) {
			return err
		}
		c.mu.Lock()
		c.voted = true
		c.mu.Unlock()
		return c.LoadResults(ctx)
	}

	c.mu.Lock()
	c.voted = true
	c.choice = optionID
	c.results = res
	c.mu.Unlock()
	return nil
}

func (c *PollCard) LoadResults(ctx context.Context) error {
	res, err := c.api.Results(ctx, c.Poll.ID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.results = res
	c.mu.Unlock()
	return nil
}

// Results returns the last server tallies, if any were fetched.
func (c *PollCard) Results() (model.PollResults, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		return model.PollResults{}, false
	}
	return *c.results, true
}

func (c *PollCard) Votes(optionID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		return 0
	}
	for _, o := range c.results.Results {
		if o.OptionID == optionID {
			return o.Votes
		}
	}
	return 0
}

func (c *PollCard) TotalVotes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		return 0
	}
	return c.results.Total()
}

// Percent is the option's share of all votes, rounded to a whole percent.
func (c *PollCard) Percent(optionID int64) int {
	total := c.TotalVotes()
	if total == 0 {
		return 0
	}
	return (c.Votes(optionID)*100 + total/2) / total
}

func (c *PollCard) hasOption(optionID int64) bool {
	for _, o := range c.Poll.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}
