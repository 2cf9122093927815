package view

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bunchup/bunchup/internal/inflight"
	"github.com/bunchup/bunchup/internal/log"
	"github.com/bunchup/bunchup/internal/model"
)

const Greeting = "Hey there! I'm the Union Assistant. How can I help you today?"

var cannedReplies = []string{
	"That's a great question about union rights! Let me help you with that.",
	"Based on labor laws and union guidelines, here's what you should know...",
	"I can connect you with resources about that topic. Would you like me to share some links?",
	"For specific legal advice, I recommend consulting with your union representative or legal advisor.",
	"Union solidarity is important! Here's some information that might help...",
	"Let me look that up for you. In the meantime, you can also check our FAQ section.",
}

type ChatAPI interface {
	Ask(ctx context.Context, question string) (*model.ChatbotAnswer, error)
}

type Speaker string

const (
	FromUser Speaker = "user"
	FromBot  Speaker = "bot"
)

type ChatMessage struct {
	From        Speaker
	Text        string
	Suggestions []string
	At          time.Time
}

// Assistant is the chat transcript. When the backend cannot answer it
// falls back to a scripted reply so the conversation always continues.
type Assistant struct {
	api     ChatAPI
	pending *inflight.Tracker
	now     func() time.Time

	mu         sync.Mutex
	transcript []ChatMessage
	nextCanned int
}

func NewAssistant(api ChatAPI) *Assistant {
	a := &Assistant{api: api, pending: inflight.New(), now: time.Now}
	a.transcript = []ChatMessage{{From: FromBot, Text: Greeting, At: a.now()}}
	return a
}

func (a *Assistant) Transcript() []ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ChatMessage(nil), a.transcript...)
}

// Typing reports whether a reply is pending.
func (a *Assistant) Typing() bool {
	return a.pending.Busy("send")
}

// Send appends the question and the reply. Blank input does nothing.
func (a *Assistant) Send(ctx context.Context, text string) (ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return ChatMessage{}, nil
	}
	release, ok := a.pending.Begin("send")
	if !ok {
		return ChatMessage{}, inflight.ErrBusy
	}
	defer release()

	a.append(ChatMessage{From: FromUser, Text: text, At: a.now()})

	var reply ChatMessage
	ans, err := a.api.Ask(ctx, text)
	if err != nil {
		log.Warn.Printf("assistant fallback: %v", err)
		reply = ChatMessage{From: FromBot, Text: a.canned(), At: a.now()}
	} else {
		reply = ChatMessage{From: FromBot, Text: ans.Answer, Suggestions: ans.Suggestions, At: a.now()}
	}
	a.append(reply)
	return reply, nil
}

func (a *Assistant) append(m ChatMessage) {
	a.mu.Lock()
	a.transcript = append(a.transcript, m)
	a.mu.Unlock()
}

func (a *Assistant) canned() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	reply := cannedReplies[a.nextCanned%len(cannedReplies)]
	a.nextCanned++
	return reply
}
