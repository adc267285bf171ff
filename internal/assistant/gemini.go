package assistant

import (
	"context"
	"errors"
	"strings"

	genai "google.golang.org/genai"
)

var ErrEmptyReply = errors.New("assistant: empty reply")

// Gemini пересылает текст модели Gemini и возвращает ответ как есть.
type Gemini struct {
	cli   *genai.Client
	model string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{cli: cli, model: model}, nil
}

func (g *Gemini) Reply(ctx context.Context, text string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(text), nil)
	if err != nil {
		return "", err
	}
	return replyText(resp)
}

func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyReply
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyReply
	}
	return sb.String(), nil
}
