package httpapp

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/store"
)

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r, defaultPollLimit)
	polls, err := s.store.ListPolls(r.Context(), skip, limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, polls)
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireOrganizer(w, r); !ok {
		return
	}
	var in model.PollCreate
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Question) == "" {
		writeValidation(w, "question", "Question is required")
		return
	}

	poll := model.Poll{
		Question:  in.Question,
		UnionID:   in.UnionID,
		CreatedAt: model.NewTimestamp(s.now()),
	}
	for _, o := range in.Options {
		if text := strings.TrimSpace(o.Text); text != "" {
			poll.Options = append(poll.Options, model.PollOption{Text: text})
		}
	}
	if len(poll.Options) < 2 {
		writeDetail(w, http.StatusBadRequest, "A poll requires at least two options")
		return
	}

	if _, err := s.store.CreatePoll(r.Context(), &poll); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var in model.VoteInput
	if !decodeBody(w, r, &in) {
		return
	}
	pollID := pathID(r)
	if !s.lookup(w, r, "Option not found for this poll", func(ctx context.Context) error {
		_, err := s.store.GetPollOption(ctx, pollID, in.OptionID)
		return err
	}) {
		return
	}

	if err := s.store.CreateVote(r.Context(), pollID, in.OptionID, user.ID, s.now()); err != nil {
		if errors.Is(err, store.ErrDuplicateVote) {
			writeDetail(w, http.StatusBadRequest, "User already voted in this poll")
			return
		}
		s.internalError(w, r, err)
		return
	}
	s.handlePollResults(w, r)
}

func (s *Server) handlePollResults(w http.ResponseWriter, r *http.Request) {
	var res model.PollResults
	if !s.lookup(w, r, "Poll not found", func(ctx context.Context) (err error) {
		res, err = s.store.PollResults(ctx, pathID(r))
		return err
	}) {
		return
	}
	writeJSON(w, http.StatusOK, res)
}
