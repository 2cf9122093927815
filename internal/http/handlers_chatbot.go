package httpapp

import (
	"net/http"
	"strings"

	"github.com/bunchup/bunchup/internal/model"
)

const chatbotGuidance = "This is informational, not legal advice. Consider contacting a licensed attorney or your union rep."

type chatbotRule struct {
	keywords []string
	tips     []string
}

var chatbotRules = []chatbotRule{
	{
		keywords: []string{"overtime", "hours", "breaks"},
		tips: []string{
			"Track worked hours accurately and keep personal records.",
			"Review your local labor laws about overtime and rest periods.",
		},
	},
	{
		keywords: []string{"retaliation", "fire", "fired", "discipline"},
		tips: []string{
			"Document incidents and communications in writing.",
			"Ask HR or your union about anti-retaliation protections.",
		},
	},
}

var chatbotDefaultTips = []string{
	"Document facts, dates, and communications.",
	"Check your contract and local labor laws.",
	"Reach out to a union representative for tailored guidance.",
}

// Answer is the scripted assistant: a fixed disclaimer plus tips picked by
// keyword. Rules are cumulative.
func Answer(question string) model.ChatbotAnswer {
	q := strings.ToLower(strings.TrimSpace(question))
	var tips []string
	for _, rule := range chatbotRules {
		for _, k := range rule.keywords {
			if strings.Contains(q, k) {
				tips = append(tips, rule.tips...)
				break
			}
		}
	}
	if len(tips) == 0 {
		tips = append(tips, chatbotDefaultTips...)
	}
	return model.ChatbotAnswer{Answer: chatbotGuidance, Suggestions: tips}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var in model.ChatbotQuestion
	if !decodeBody(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, Answer(in.Question))
}
