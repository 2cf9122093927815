package client

import (
	"context"
	"net/http"

	"github.com/bunchup/bunchup/internal/model"
)

type ChatbotService struct {
	c *Client
}

func (s *ChatbotService) Ask(ctx context.Context, question string) (*model.ChatbotAnswer, error) {
	var ans model.ChatbotAnswer
	if err := s.c.do(ctx, http.MethodPost, "/api/chatbot/ask", model.ChatbotQuestion{Question: question}, &ans); err != nil {
		return nil, err
	}
	return &ans, nil
}
