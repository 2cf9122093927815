package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bunchup/bunchup/internal/model"
)

type UnionsService struct {
	c *Client
}

// UnionFilter narrows a union listing. Empty fields are not sent.
type UnionFilter struct {
	Page
	Industry string
	Search   string
}

// List fetches unions. Each union's IsMember is relative to the stored token.
func (s *UnionsService) List(ctx context.Context, f UnionFilter) ([]model.Union, error) {
	q := f.Page.values(defaultLimit)
	if f.Industry != "" {
		q.Set("industry", f.Industry)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	var unions []model.Union
	if err := s.c.get(ctx, "/api/unions/", q, &unions); err != nil {
		return nil, err
	}
	return unions, nil
}

func (s *UnionsService) Get(ctx context.Context, unionID int64) (*model.Union, error) {
	var union model.Union
	if err := s.c.get(ctx, fmt.Sprintf("/api/unions/%d", unionID), nil, &union); err != nil {
		return nil, err
	}
	return &union, nil
}

func (s *UnionsService) Create(ctx context.Context, in model.UnionCreate) (*model.Union, error) {
	var union model.Union
	if err := s.c.do(ctx, http.MethodPost, "/api/unions/", in, &union); err != nil {
		return nil, err
	}
	return &union, nil
}

// Industries lists the distinct non-empty industries across unions.
func (s *UnionsService) Industries(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.c.get(ctx, "/api/unions/industries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UnionsService) Join(ctx context.Context, unionID int64) (*model.Message, error) {
	var msg model.Message
	if err := s.c.do(ctx, http.MethodPost, fmt.Sprintf("/api/unions/%d/join", unionID), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *UnionsService) Leave(ctx context.Context, unionID int64) (*model.Message, error) {
	var msg model.Message
	if err := s.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/unions/%d/leave", unionID), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *UnionsService) Members(ctx context.Context, unionID int64, page Page) ([]model.Member, error) {
	var members []model.Member
	if err := s.c.get(ctx, fmt.Sprintf("/api/unions/%d/members", unionID), page.values(defaultLimit), &members); err != nil {
		return nil, err
	}
	return members, nil
}
