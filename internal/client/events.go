package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bunchup/bunchup/internal/model"
)

type EventsService struct {
	c *Client
}

// List fetches events ordered by start time, latest first.
func (s *EventsService) List(ctx context.Context, page Page) ([]model.Event, error) {
	var events []model.Event
	if err := s.c.get(ctx, "/api/events/", page.values(defaultLimit), &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *EventsService) Get(ctx context.Context, eventID int64) (*model.Event, error) {
	var ev model.Event
	if err := s.c.get(ctx, fmt.Sprintf("/api/events/%d", eventID), nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *EventsService) Create(ctx context.Context, in model.EventInput) (*model.Event, error) {
	var ev model.Event
	if err := s.c.do(ctx, http.MethodPost, "/api/events/", in, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Update replaces every editable field of the event.
func (s *EventsService) Update(ctx context.Context, eventID int64, in model.EventInput) (*model.Event, error) {
	var ev model.Event
	if err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/events/%d", eventID), in, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *EventsService) Delete(ctx context.Context, eventID int64) (*model.Message, error) {
	var msg model.Message
	if err := s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/events/%d", eventID), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RSVP registers the caller and returns the authoritative attendee count.
func (s *EventsService) RSVP(ctx context.Context, eventID int64) (*model.RSVPResult, error) {
	var res model.RSVPResult
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/api/events/%d/rsvp", eventID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CancelRSVP withdraws the caller and returns the authoritative attendee count.
func (s *EventsService) CancelRSVP(ctx context.Context, eventID int64) (*model.RSVPResult, error) {
	var res model.RSVPResult
	if err := s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/events/%d/rsvp", eventID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *EventsService) Attendees(ctx context.Context, eventID int64) (*model.Attendees, error) {
	var out model.Attendees
	if err := s.c.get(ctx, fmt.Sprintf("/api/events/%d/attendees", eventID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
