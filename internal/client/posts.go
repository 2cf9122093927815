package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bunchup/bunchup/internal/model"
)

type PostsService struct {
	c *Client
}

// ListByUnion fetches a union's posts, newest first.
func (s *PostsService) ListByUnion(ctx context.Context, unionID int64, page Page) ([]model.Post, error) {
	var posts []model.Post
	if err := s.c.get(ctx, fmt.Sprintf("/api/posts/union/%d", unionID), page.values(defaultLimit), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostsService) Get(ctx context.Context, postID int64) (*model.Post, error) {
	var post model.Post
	if err := s.c.get(ctx, fmt.Sprintf("/api/posts/%d", postID), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Create posts to a union. Requires an organizer or admin token.
func (s *PostsService) Create(ctx context.Context, unionID int64, in model.PostCreate) (*model.Post, error) {
	var post model.Post
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/api/posts/union/%d", unionID), in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

type CommentsService struct {
	c *Client
}

// List fetches a post's comments, oldest first.
func (s *CommentsService) List(ctx context.Context, postID int64, page Page) ([]model.Comment, error) {
	var comments []model.Comment
	if err := s.c.get(ctx, fmt.Sprintf("/api/posts/%d/comments", postID), page.values(defaultLimit), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *CommentsService) Create(ctx context.Context, postID int64, content string) (*model.Comment, error) {
	var comment model.Comment
	body := model.CommentInput{Content: content}
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", postID), body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *CommentsService) Update(ctx context.Context, commentID int64, content string) (*model.Comment, error) {
	var comment model.Comment
	body := model.CommentInput{Content: content}
	if err := s.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/posts/comments/%d", commentID), body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *CommentsService) Delete(ctx context.Context, commentID int64) error {
	return s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/posts/comments/%d", commentID), nil, nil)
}

type FeedbackService struct {
	c *Client
}

// CreateForPost sends feedback about a post.
func (s *FeedbackService) CreateForPost(ctx context.Context, postID int64, in model.FeedbackCreate) (*model.Feedback, error) {
	var fb model.Feedback
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/api/feedbacks/post/%d", postID), in, &fb); err != nil {
		return nil, err
	}
	return &fb, nil
}

// Create sends general feedback not tied to a post.
func (s *FeedbackService) Create(ctx context.Context, in model.FeedbackCreate) (*model.Feedback, error) {
	var fb model.Feedback
	if err := s.c.do(ctx, http.MethodPost, "/api/feedbacks/", in, &fb); err != nil {
		return nil, err
	}
	return &fb, nil
}

func (s *FeedbackService) ListByPost(ctx context.Context, postID int64, page Page) ([]model.Feedback, error) {
	var out []model.Feedback
	if err := s.c.get(ctx, fmt.Sprintf("/api/feedbacks/post/%d", postID), page.values(defaultLimit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FeedbackService) Get(ctx context.Context, feedbackID int64) (*model.Feedback, error) {
	var fb model.Feedback
	if err := s.c.get(ctx, fmt.Sprintf("/api/feedbacks/%d", feedbackID), nil, &fb); err != nil {
		return nil, err
	}
	return &fb, nil
}
