package view

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bunchup/bunchup/internal/client"
	"github.com/bunchup/bunchup/internal/inflight"
	"github.com/bunchup/bunchup/internal/model"
)

type CommentAPI interface {
	List(ctx context.Context, postID int64, page client.Page) ([]model.Comment, error)
	Create(ctx context.Context, postID int64, content string) (*model.Comment, error)
	Update(ctx context.Context, commentID int64, content string) (*model.Comment, error)
	Delete(ctx context.Context, commentID int64) error
}

// CommentSection is the comment thread under one post. Server responses are
// spliced into the local list; it is only re-fetched by Load.
type CommentSection struct {
	PostID int64

	api     CommentAPI
	who     Identity
	pending *inflight.Tracker

	mu       sync.Mutex
	comments []model.Comment
}

func NewCommentSection(api CommentAPI, who Identity, postID int64) *CommentSection {
	return &CommentSection{PostID: postID, api: api, who: who, pending: inflight.New()}
}

func (s *CommentSection) Load(ctx context.Context) error {
	comments, err := s.api.List(ctx, s.PostID, client.Page{})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.comments = comments
	s.mu.Unlock()
	return nil
}

func (s *CommentSection) Comments() []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Comment(nil), s.comments...)
}

func (s *CommentSection) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}

// Submitting reports whether a new comment is being posted.
func (s *CommentSection) Submitting() bool {
	return s.pending.Busy("add")
}

// Add posts a comment and appends it. Blank content does nothing and
// returns nil.
func (s *CommentSection) Add(ctx context.Context, content string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	if _, err := s.who.Require(); err != nil {
		return nil, err
	}
	release, ok := s.pending.Begin("add")
	if !ok {
		return nil, inflight.ErrBusy
	}
	defer release()

	comment, err := s.api.Create(ctx, s.PostID, content)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.comments = append(s.comments, *comment)
	s.mu.Unlock()
	return comment, nil
}

// Edit replaces the comment in place, keeping its position.
func (s *CommentSection) Edit(ctx context.Context, commentID int64, content string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	if _, err := s.who.Require(); err != nil {
		return nil, err
	}
	release, ok := s.pending.Begin(fmt.Sprintf("edit/%d", commentID))
	if !ok {
		return nil, inflight.ErrBusy
	}
	defer release()

	updated, err := s.api.Update(ctx, commentID, content)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	for i := range s.comments {
		if s.comments[i].ID == commentID {
			s.comments[i] = *updated
			break
		}
	}
	s.mu.Unlock()
	return updated, nil
}

// Delete removes exactly the entry with commentID once the server agrees.
func (s *CommentSection) Delete(ctx context.Context, commentID int64) error {
	if _, err := s.who.Require(); err != nil {
		return err
	}
	release, ok := s.pending.Begin(fmt.Sprintf("delete/%d", commentID))
	if !ok {
		return inflight.ErrBusy
	}
	defer release()

	if err := s.api.Delete(ctx, commentID); err != nil {
		return err
	}
	s.mu.Lock()
	for i := range s.comments {
		if s.comments[i].ID == commentID {
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}
