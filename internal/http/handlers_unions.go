package httpapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/store"
)

func (s *Server) handleListUnions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, limit := pageParams(r, defaultLimit)
	opts := store.UnionListOpts{
		Skip:     skip,
		Limit:    limit,
		Industry: q.Get("industry"),
		Search:   q.Get("search"),
	}
	if viewer := s.optionalAuth(r); viewer != nil {
		opts.ViewerID = viewer.ID
	}

	unions, err := s.store.ListUnions(r.Context(), opts)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if unions == nil {
		unions = []model.Union{}
	}
	writeJSON(w, http.StatusOK, unions)
}

func (s *Server) handleCreateUnion(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireOrganizer(w, r); !ok {
		return
	}
	var in model.UnionCreate
	if !decodeBody(w, r, &in) {
		return
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		writeValidation(w, "name", "Name is required")
		return
	}

	union := model.Union{
		Name:        name,
		Description: optionalString(in.Description),
		Industry:    optionalString(in.Industry),
		Tags:        optionalString(in.Tags),
		CreatedAt:   model.NewTimestamp(s.now()),
	}
	id, err := s.store.CreateUnion(r.Context(), &union)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			writeDetail(w, http.StatusBadRequest, "Union already exists")
			return
		}
		s.internalError(w, r, err)
		return
	}
	union.ID = id
	writeJSON(w, http.StatusOK, union)
}

func (s *Server) handleListIndustries(w http.ResponseWriter, r *http.Request) {
	industries, err := s.store.ListIndustries(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, industries)
}

func (s *Server) handleGetUnion(w http.ResponseWriter, r *http.Request) {
	var viewerID int64
	if viewer := s.optionalAuth(r); viewer != nil {
		viewerID = viewer.ID
	}
	var union model.Union
	if !s.lookup(w, r, "Union not found", func(ctx context.Context) (err error) {
		union, err = s.store.GetUnion(ctx, pathID(r), viewerID)
		return err
	}) {
		return
	}
	writeJSON(w, http.StatusOK, union)
}

func (s *Server) handleJoinUnion(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var union model.Union
	if !s.lookup(w, r, "Union not found", func(ctx context.Context) (err error) {
		union, err = s.store.GetUnion(ctx, pathID(r), user.ID)
		return err
	}) {
		return
	}

	if err := s.store.AddMember(r.Context(), union.ID, user.ID, s.now()); err != nil {
		if errors.Is(err, store.ErrDuplicateMember) {
			writeDetail(w, http.StatusBadRequest, "Already a member of this union")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Message{Message: fmt.Sprintf("Successfully joined %s", union.Name)})
}

func (s *Server) handleLeaveUnion(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	var union model.Union
	if !s.lookup(w, r, "Union not found", func(ctx context.Context) (err error) {
		union, err = s.store.GetUnion(ctx, pathID(r), user.ID)
		return err
	}) {
		return
	}

	if err := s.store.RemoveMember(r.Context(), union.ID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusBadRequest, "Not a member of this union")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Message{Message: fmt.Sprintf("Successfully left %s", union.Name)})
}

func (s *Server) handleUnionMembers(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if !s.lookup(w, r, "Union not found", func(ctx context.Context) error {
		_, err := s.store.GetUnion(ctx, id, 0)
		return err
	}) {
		return
	}
	skip, limit := pageParams(r, defaultLimit)
	members, err := s.store.ListMembers(r.Context(), id, skip, limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}
