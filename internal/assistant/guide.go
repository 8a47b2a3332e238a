// Package assistant answers chat messages with a Gemini-backed guide that
// suggests one concrete task for the user's list.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

var (
	ErrEmptyMessage  = errors.New("assistant: message is required")
	ErrNotConfigured = errors.New("assistant: api key not configured")
)

const (
	DefaultModel    = "gemini-2.0-flash"
	fallbackReply   = "I am unable to provide a response at this moment. Please try again later."
	defaultUserName = "Friend"
)

// Generator is the slice of the genai client the guide calls.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Reply struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

type Guide struct {
	gen    Generator
	model  string
	now    func() time.Time
	logger *zap.Logger
}

// NewGuide connects to the Gemini API with apiKey.
func NewGuide(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Guide, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return NewGuideWithGenerator(client.Models, model, logger), nil
}

func NewGuideWithGenerator(gen Generator, model string, logger *zap.Logger) *Guide {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guide{gen: gen, model: model, now: time.Now, logger: logger}
}

// Reply answers message on behalf of userName. An empty candidate list is
// answered with a fixed fallback sentence rather than an error.
func (g *Guide) Reply(ctx context.Context, userName, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	resp, err := g.gen.GenerateContent(ctx, g.model,
		genai.Text(buildPrompt(userName, message)),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.7),
			TopK:            genai.Ptr[float32](40),
			TopP:            genai.Ptr[float32](0.95),
			MaxOutputTokens: 1024,
		},
	)
	if err != nil {
		g.logger.Error("generate reply", zap.String("model", g.model), zap.Error(err))
		return Reply{}, fmt.Errorf("generate reply: %w", err)
	}
	text := firstText(resp)
	if text == "" {
		text = fallbackReply
	}
	return Reply{Response: text, Timestamp: g.now().UTC()}, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}
	for _, part := range content.Parts {
		if part != nil && strings.TrimSpace(part.Text) != "" {
			return part.Text
		}
	}
	return ""
}

func buildPrompt(userName, message string) string {
	name := strings.TrimSpace(userName)
	if name == "" {
		name = defaultUserName
	}
	var b strings.Builder
	b.WriteString("You are Dharma, a wise and compassionate guide for DharmaSync, an application dedicated to ")
	b.WriteString("mindful living, community connection and spiritual growth rooted in Vedic principles ")
	b.WriteString("(Karma, Dharma, Seva). Draw on Hindu scriptures, traditions and philosophy in your answers.\n\n")
	b.WriteString("When the user asks a question or shares a concern, answer with empathy and then suggest ")
	b.WriteString("one concrete, actionable task they can add to their \"My Tasks\" page.\n\n")
	fmt.Fprintf(&b, "User's Name: %s\n", name)
	fmt.Fprintf(&b, "User's Message: %q\n", message)
	return b.String()
}
