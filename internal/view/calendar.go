package view

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bunchup/bunchup/internal/client"
	"github.com/bunchup/bunchup/internal/inflight"
	"github.com/bunchup/bunchup/internal/log"
	"github.com/bunchup/bunchup/internal/model"
)

type EventAPI interface {
	List(ctx context.Context, page client.Page) ([]model.Event, error)
	RSVP(ctx context.Context, eventID int64) (*model.RSVPResult, error)
	CancelRSVP(ctx context.Context, eventID int64) (*model.RSVPResult, error)
	Attendees(ctx context.Context, eventID int64) (*model.Attendees, error)
}

// Calendar caches the event list by id. Attendee counts returned by RSVP
// calls are merged into the cached event instead of being recomputed.
type Calendar struct {
	api     EventAPI
	who     Identity
	pending *inflight.Tracker

	mu     sync.Mutex
	order  []int64
	events map[int64]model.Event
	going  map[int64]bool
}

func NewCalendar(api EventAPI, who Identity) *Calendar {
	return &Calendar{
		api:     api,
		who:     who,
		pending: inflight.New(),
		events:  make(map[int64]model.Event),
		going:   make(map[int64]bool),
	}
}

// Load replaces the cache with the server list, keeping its order. RSVP
// status is dropped with it; call PrefetchRSVPStatus to refill it.
func (c *Calendar) Load(ctx context.Context) error {
	events, err := c.api.List(ctx, client.Page{})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = c.order[:0]
	c.events = make(map[int64]model.Event, len(events))
	c.going = make(map[int64]bool)
	for _, ev := range events {
		c.order = append(c.order, ev.ID)
		c.events[ev.ID] = ev
	}
	return nil
}

// Put adds or replaces one event, e.g. after a create or update.
func (c *Calendar) Put(ev model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.events[ev.ID]; !ok {
		c.order = append(c.order, ev.ID)
	}
	c.events[ev.ID] = ev
}

func (c *Calendar) Remove(eventID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.events, eventID)
	delete(c.going, eventID)
	c.order = slices.DeleteFunc(c.order, func(id int64) bool { return id == eventID })
}

func (c *Calendar) Events() []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Event, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.events[id])
	}
	return out
}

func (c *Calendar) Event(eventID int64) (model.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev, ok := c.events[eventID]
	return ev, ok
}

func (c *Calendar) IsGoing(eventID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.going[eventID]
}

func (c *Calendar) RSVP(ctx context.Context, eventID int64) error {
	return c.rsvp(ctx, eventID, true)
}

func (c *Calendar) CancelRSVP(ctx context.Context, eventID int64) error {
	return c.rsvp(ctx, eventID, false)
}

func (c *Calendar) rsvp(ctx context.Context, eventID int64, attend bool) error {
	if _, err := c.who.Require(); err != nil {
		return err
	}
	release, ok := c.pending.Begin(fmt.Sprintf("rsvp/%d", eventID))
	if !ok {
		return inflight.ErrBusy
	}
	defer release()

	var res *model.RSVPResult
	var err error
	if attend {
		res, err = c.api.RSVP(ctx, eventID)
	} else {
		res, err = c.api.CancelRSVP(ctx, eventID)
	}
	if err != nil {
		if attend && client.IsAlreadyRSVPd(err) {
			c.mu.Lock()
			c.going[eventID] = true
			c.mu.Unlock()
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.going[eventID] = attend
	if ev, ok := c.events[eventID]; ok {
		ev.AttendeeCount = res.AttendeeCount
		c.events[eventID] = ev
	}
	return nil
}

// PrefetchRSVPStatus asks each cached event for its attendees to learn
// whether the signed-in user is going. A failed lookup is logged and
// skipped. It returns the number of skipped events.
func (c *Calendar) PrefetchRSVPStatus(ctx context.Context) int {
	user, err := c.who.Require()
	if err != nil {
		return 0
	}
	skipped := 0
	for _, ev := range c.Events() {
		if ctx.Err() != nil {
			return skipped
		}
		att, err := c.api.Attendees(ctx, ev.ID)
		if err != nil {
			log.Warn.Printf("rsvp status for event %d: %v", ev.ID, err)
			skipped++
			continue
		}
		c.mu.Lock()
		c.going[ev.ID] = att.Has(user.ID)
		if cached, ok := c.events[ev.ID]; ok {
			cached.AttendeeCount = att.AttendeeCount
			c.events[ev.ID] = cached
		}
		c.mu.Unlock()
	}
	return skipped
}

func (c *Calendar) MyEvents() []model.Event {
	var out []model.Event
	for _, ev := range c.Events() {
		if c.IsGoing(ev.ID) {
			out = append(out, ev)
		}
	}
	return out
}

// Upcoming returns events starting at or after now, soonest first. n <= 0
// means no limit.
func (c *Calendar) Upcoming(now time.Time, n int) []model.Event {
	var out []model.Event
	for _, ev := range c.Events() {
		if !ev.StartTime.Before(now) {
			out = append(out, ev)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Event) int {
		return a.StartTime.Compare(b.StartTime.Time)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// On returns the events starting on day's calendar date in day's location.
func (c *Calendar) On(day time.Time) []model.Event {
	y, m, d := day.Date()
	var out []model.Event
	for _, ev := range c.Events() {
		ey, em, ed := ev.StartTime.In(day.Location()).Date()
		if ey == y && em == m && ed == d {
			out = append(out, ev)
		}
	}
	return out
}

func DateString(t model.Timestamp) string {
	return t.Format("2006-01-02")
}

// TimeRange renders "3:04 PM - 5:00 PM", or only the start without an end.
func TimeRange(ev model.Event, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	start := ev.StartTime.In(loc).Format("3:04 PM")
	if ev.EndTime == nil || ev.EndTime.IsZero() {
		return start
	}
	return start + " - " + ev.EndTime.In(loc).Format("3:04 PM")
}
