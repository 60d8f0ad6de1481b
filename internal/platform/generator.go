// internal/platform/generator.go
package platform

import (
	"strings"

	"github.com/leadpilot/leadpilot-backend/internal/model"
)

// RenderTemplate substitutes {placeholder} tokens in a template.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "<unknown>"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// TemplateGenerator is a stand-in for the real AI generator: it renders a
// fixed template per channel from lead fields. Good enough to exercise the
// full admission pipeline without the external collaborator.
type TemplateGenerator struct {
	ConnectionTemplate string
	MessageTemplate    string
	EmailTemplate      string
	EmailSubject       string
}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{
		ConnectionTemplate: "Hi {first_name}, I came across your work at {company} and would love to connect.",
		MessageTemplate:    "Thanks for connecting, {first_name}! I had a thought about {company} I wanted to share.",
		EmailTemplate:      "Hi {first_name},\n\nI noticed {company} has been growing and thought this might be relevant to your role as {title}.\n\nBest regards",
		EmailSubject:       "Quick question about {company}",
	}
}

func (g *TemplateGenerator) GenerateStrategy(lead model.Lead, fitScore int) (*Strategy, error) {
	tone := "professional"
	if lead.PositiveHistory {
		tone = "warm"
	}
	return &Strategy{
		Angle:         "role_relevance",
		Tone:          tone,
		TalkingPoints: []string{lead.Company, lead.Title},
	}, nil
}

func (g *TemplateGenerator) GenerateMessages(lead model.Lead, strategy *Strategy) (*GeneratedMessage, error) {
	data := map[string]string{
		"first_name": lead.FirstName,
		"last_name":  lead.LastName,
		"company":    lead.Company,
		"title":      lead.Title,
	}
	return &GeneratedMessage{
		Subject: RenderTemplate(g.EmailSubject, data),
		Body:    RenderTemplate(g.EmailTemplate, data),
		FollowUps: []string{
			RenderTemplate(g.ConnectionTemplate, data),
			RenderTemplate(g.MessageTemplate, data),
		},
	}, nil
}

// Draft picks the drafted text matching a channel.
func (g *TemplateGenerator) Draft(lead model.Lead, channel model.ActionType) (string, string, error) {
	data := map[string]string{
		"first_name": lead.FirstName,
		"last_name":  lead.LastName,
		"company":    lead.Company,
		"title":      lead.Title,
	}
	switch channel {
	case model.ActionConnectionRequest:
		return RenderTemplate(g.ConnectionTemplate, data), "", nil
	case model.ActionEmail:
		return RenderTemplate(g.EmailTemplate, data), RenderTemplate(g.EmailSubject, data), nil
	default:
		return RenderTemplate(g.MessageTemplate, data), "", nil
	}
}

var _ ContentGenerator = (*TemplateGenerator)(nil)
var _ Drafter = (*TemplateGenerator)(nil)
