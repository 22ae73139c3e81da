// Package ai personalizes outreach messages: template variables are filled
// in locally and, when Gemini is configured, the result is polished by the
// model for the target channel.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Personalizer turns a filled-in template into the final message text.
type Personalizer interface {
	Personalize(ctx context.Context, in MessageInput) (string, error)
}

// MessageInput is everything the model may use.
type MessageInput struct {
	Channel       string
	Draft         string // template with variables already substituted
	RecipientName string
	CampaignName  string
	Metadata      map[string]any
}

// AIService holds the Gemini client and the model name.
type AIService struct {
	Client    *genai.Client
	ModelName string
	log       *zap.Logger
}

// NewAIService initializes the Gemini client.
func NewAIService(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*AIService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash" // Fallback default
	}
	return &AIService{Client: client, ModelName: modelName, log: log}, nil
}

// Close releases the underlying client.
func (s *AIService) Close() error {
	return s.Client.Close()
}

// Personalize asks the model to rewrite the draft for the channel. It
// returns an error (and no text) when the model gives nothing usable.
func (s *AIService) Personalize(ctx context.Context, in MessageInput) (string, error) {
	// 1. Configure the model for this channel
	model := s.Client.GenerativeModel(s.ModelName)
	model.SetTemperature(0.4)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt(in.Channel))},
	}

	// 2. Send the draft with its context
	res, err := model.GenerateContent(ctx, genai.Text(userPrompt(in)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if res.UsageMetadata != nil {
		s.log.Debug("gemini personalization", zap.Int32("tokens", res.UsageMetadata.TotalTokenCount))
	}

	// 3. Collect the text parts of the first candidate
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("gemini returned an empty message")
	}
	return out, nil
}

func systemPrompt(channel string) string {
	tone := "professional and concise"
	if channel == "whatsapp" {
		tone = "friendly and short, plain text without markdown"
	}
	return fmt.Sprintf(`
		You are the Nexus TechHub outreach assistant. You rewrite marketing messages
		for the %s channel. Tone: %s.
		Rules: keep every fact, price and link from the draft. Do not invent offers.
		Reply with the message text only.
	`, channel, tone)
}

func userPrompt(in MessageInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Campaign: %s\n", in.CampaignName)
	if in.RecipientName != "" {
		fmt.Fprintf(&b, "Recipient: %s\n", in.RecipientName)
	}
	for _, k := range []string{"company", "position", "industry"} {
		if v, ok := in.Metadata[k]; ok && v != nil {
			fmt.Fprintf(&b, "Recipient %s: %v\n", k, v)
		}
	}
	fmt.Fprintf(&b, "\nDraft:\n%s", in.Draft)
	return b.String()
}
