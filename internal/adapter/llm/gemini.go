package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
	"github.com/pranavsaigandikota/Satchel/internal/port"
)

const defaultModel = "gemini-2.5-flash"

// GeminiCompleter implements port.Completer against the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, system string, turns []port.Turn, attachment *port.Attachment) (string, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for i, turn := range turns {
		role := genai.Role(genai.RoleUser)
		if turn.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}

		// The attachment rides on the final user turn.
		if i == len(turns)-1 && attachment != nil && role == genai.RoleUser {
			parts := []*genai.Part{
				genai.NewPartFromText(turn.Text),
				{InlineData: &genai.Blob{MIMEType: attachment.MIMEType, Data: attachment.Data}},
			}
			contents = append(contents, genai.NewContentFromParts(parts, role))
			continue
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       ptrFloat32(0.3),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty completion response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("completion returned no text")
	}
	return sb.String(), nil
}

func ptrFloat32(v float32) *float32 { return &v }
