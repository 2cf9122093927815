package store

import (
	"context"
	"errors"
	"time"

	"github.com/bunchup/bunchup/internal/model"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrDuplicateMember = errors.New("duplicate member")
	ErrDuplicateRSVP   = errors.New("duplicate rsvp")
	ErrDuplicateVote   = errors.New("duplicate vote")
)

type UnionListOpts struct {
	Skip     int
	Limit    int
	Industry string
	Search   string
	// ViewerID annotates IsMember. Zero means anonymous.
	ViewerID int64
}

type Store interface {
	UserStore
	UnionStore
	PostStore
	CommentStore
	FeedbackStore
	EventStore
	PollStore
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User, passwordHash string) (int64, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, string, error)
}

type UnionStore interface {
	CreateUnion(ctx context.Context, union *model.Union) (int64, error)
	GetUnion(ctx context.Context, id, viewerID int64) (model.Union, error)
	ListUnions(ctx context.Context, opts UnionListOpts) ([]model.Union, error)
	ListIndustries(ctx context.Context) ([]string, error)
	AddMember(ctx context.Context, unionID, userID int64, at time.Time) error
	RemoveMember(ctx context.Context, unionID, userID int64) error
	ListMembers(ctx context.Context, unionID int64, skip, limit int) ([]model.Member, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) (int64, error)
	GetPost(ctx context.Context, id int64) (model.Post, error)
	ListPostsByUnion(ctx context.Context, unionID int64, skip, limit int) ([]model.Post, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) (int64, error)
	GetComment(ctx context.Context, id int64) (model.Comment, error)
	ListComments(ctx context.Context, postID int64, skip, limit int) ([]model.Comment, error)
	UpdateComment(ctx context.Context, id int64, content string, at time.Time) error
	DeleteComment(ctx context.Context, id int64) error
}

type FeedbackStore interface {
	CreateFeedback(ctx context.Context, fb *model.Feedback, userID *int64) (int64, error)
	GetFeedback(ctx context.Context, id int64) (model.Feedback, error)
	ListFeedbackByPost(ctx context.Context, postID int64, skip, limit int) ([]model.Feedback, error)
}

type EventStore interface {
	CreateEvent(ctx context.Context, ev *model.Event) (int64, error)
	GetEvent(ctx context.Context, id int64) (model.Event, error)
	ListEvents(ctx context.Context, skip, limit int) ([]model.Event, error)
	UpdateEvent(ctx context.Context, ev *model.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	AddAttendee(ctx context.Context, eventID, userID int64, at time.Time) error
	RemoveAttendee(ctx context.Context, eventID, userID int64) error
	ListAttendees(ctx context.Context, eventID int64) ([]model.Attendee, error)
}

type PollStore interface {
	CreatePoll(ctx context.Context, poll *model.Poll) (int64, error)
	GetPoll(ctx context.Context, id int64) (model.Poll, error)
	ListPolls(ctx context.Context, skip, limit int) ([]model.Poll, error)
	GetPollOption(ctx context.Context, pollID, optionID int64) (model.PollOption, error)
	CreateVote(ctx context.Context, pollID, optionID, userID int64, at time.Time) error
	PollResults(ctx context.Context, pollID int64) (model.PollResults, error)
}
