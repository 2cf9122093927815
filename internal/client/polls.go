package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bunchup/bunchup/internal/model"
)

type PollsService struct {
	c *Client
}

// List fetches polls, newest first. The default page size is 50.
func (s *PollsService) List(ctx context.Context, page Page) ([]model.Poll, error) {
	var polls []model.Poll
	if err := s.c.get(ctx, "/api/polls/", page.values(defaultPollLimit), &polls); err != nil {
		return nil, err
	}
	return polls, nil
}

func (s *PollsService) Create(ctx context.Context, in model.PollCreate) (*model.Poll, error) {
	var poll model.Poll
	if err := s.c.do(ctx, http.MethodPost, "/api/polls/", in, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// Vote casts the caller's single vote and returns the aggregated results.
// A second vote fails with an error matched by IsAlreadyVoted.
func (s *PollsService) Vote(ctx context.Context, pollID, optionID int64) (*model.PollResults, error) {
	var res model.PollResults
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/api/polls/%d/vote", pollID), model.VoteInput{OptionID: optionID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *PollsService) Results(ctx context.Context, pollID int64) (*model.PollResults, error) {
	var res model.PollResults
	if err := s.c.get(ctx, fmt.Sprintf("/api/polls/%d/results", pollID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
