package httpapp

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/store"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r, defaultLimit)
	events, err := s.store.ListEvents(r.Context(), skip, limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// decodeEvent reads and validates an event body. It answers the request
// itself when the body is unusable.
func decodeEvent(w http.ResponseWriter, r *http.Request) (model.EventInput, bool) {
	var in model.EventInput
	if !decodeBody(w, r, &in) {
		return model.EventInput{}, false
	}
	if strings.TrimSpace(in.Title) == "" {
		writeValidation(w, "title", "Title is required")
		return model.EventInput{}, false
	}
	if in.StartTime.IsZero() {
		writeValidation(w, "start_time", "start_time is required")
		return model.EventInput{}, false
	}
	if in.EndTime != nil && in.EndTime.IsZero() {
		in.EndTime = nil
	}
	if in.EndTime != nil && in.EndTime.Before(in.StartTime.Time) {
		writeDetail(w, http.StatusBadRequest, "end_time must be after start_time")
		return model.EventInput{}, false
	}
	return in, true
}

func applyEventInput(ev *model.Event, in model.EventInput) {
	ev.Title = in.Title
	ev.Description = optionalString(in.Description)
	ev.Location = optionalString(in.Location)
	ev.StartTime = in.StartTime
	ev.EndTime = in.EndTime
	ev.UnionID = in.UnionID
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireOrganizer(w, r)
	if !ok {
		return
	}
	in, ok := decodeEvent(w, r)
	if !ok {
		return
	}

	ev := model.Event{
		CreatorID: user.ID,
		Creator:   model.UserRef{ID: user.ID, Username: user.Username},
		CreatedAt: model.NewTimestamp(s.now()),
	}
	applyEventInput(&ev, in)
	id, err := s.store.CreateEvent(r.Context(), &ev)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	ev.ID = id
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if !s.lookup(w, r, "Event not found", func(ctx context.Context) (err error) {
		ev, err = s.store.GetEvent(ctx, pathID(r))
		return err
	}) {
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// editableEvent loads the event in the path and checks the caller is its
// creator or an organizer or admin.
func (s *Server) editableEvent(w http.ResponseWriter, r *http.Request, user model.User, action string) (model.Event, bool) {
	var ev model.Event
	if !s.lookup(w, r, "Event not found", func(ctx context.Context) (err error) {
		ev, err = s.store.GetEvent(ctx, pathID(r))
		return err
	}) {
		return model.Event{}, false
	}
	if ev.CreatorID != user.ID && !user.Role.CanOrganize() {
		writeDetail(w, http.StatusForbidden, "Only the event creator or admins can "+action+" this event")
		return model.Event{}, false
	}
	return ev, true
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	ev, ok := s.editableEvent(w, r, user, "edit")
	if !ok {
		return
	}
	in, ok := decodeEvent(w, r)
	if !ok {
		return
	}

	applyEventInput(&ev, in)
	if err := s.store.UpdateEvent(r.Context(), &ev); err != nil {
		s.internalError(w, r, err)
		return
	}
	updated, err := s.store.GetEvent(r.Context(), ev.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	ev, ok := s.editableEvent(w, r, user, "delete")
	if !ok {
		return
	}
	if err := s.store.DeleteEvent(r.Context(), ev.ID); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Message{Message: "Event deleted successfully"})
}

func (s *Server) handleRSVP(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	eventID := pathID(r)
	if !s.lookup(w, r, "Event not found", func(ctx context.Context) error {
		_, err := s.store.GetEvent(ctx, eventID)
		return err
	}) {
		return
	}

	if err := s.store.AddAttendee(r.Context(), eventID, user.ID, s.now()); err != nil {
		if errors.Is(err, store.ErrDuplicateRSVP) {
			writeDetail(w, http.StatusBadRequest, "Already RSVP'd to this event")
			return
		}
		s.internalError(w, r, err)
		return
	}
	s.writeRSVP(w, r, eventID, "RSVP successful")
}

func (s *Server) handleCancelRSVP(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	eventID := pathID(r)
	if err := s.store.RemoveAttendee(r.Context(), eventID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "RSVP not found")
			return
		}
		s.internalError(w, r, err)
		return
	}
	s.writeRSVP(w, r, eventID, "RSVP cancelled")
}

func (s *Server) writeRSVP(w http.ResponseWriter, r *http.Request, eventID int64, msg string) {
	attendees, err := s.store.ListAttendees(r.Context(), eventID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.RSVPResult{Message: msg, AttendeeCount: len(attendees)})
}

func (s *Server) handleAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := pathID(r)
	if !s.lookup(w, r, "Event not found", func(ctx context.Context) error {
		_, err := s.store.GetEvent(ctx, eventID)
		return err
	}) {
		return
	}
	attendees, err := s.store.ListAttendees(r.Context(), eventID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Attendees{
		EventID:       eventID,
		AttendeeCount: len(attendees),
		Attendees:     attendees,
	})
}
