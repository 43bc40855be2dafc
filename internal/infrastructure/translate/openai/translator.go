// Package openai provides a Translator implementation using OpenAI.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/navayuwa/nes-core/internal/infrastructure/config"
)

const translationPrompt = `You are a translator for a Nepali civic knowledge base. Translate the given text from %s to %s.

The text is a proper name: a person, political party, government body, place or development project in Nepal. Use the established %s form of the name where one exists rather than transliterating.

Return ONLY the translated text, no explanation, no quotation marks.`

var languageNames = map[string]string{
	"en": "English",
	"ne": "Nepali",
}

// Translator implements the Translator interface using OpenAI.
type Translator struct {
	client *openai.Client
	model  string
}

// NewTranslator creates a new OpenAI translator.
func NewTranslator(cfg config.TranslatorConfig) (*Translator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Translator{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
	}, nil
}

// Translate translates text between the given ISO 639-1 languages.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	source, ok := languageNames[sourceLang]
	if !ok {
		return "", fmt.Errorf("unsupported source language: %q", sourceLang)
	}
	target, ok := languageNames[targetLang]
	if !ok {
		return "", fmt.Errorf("unsupported target language: %q", targetLang)
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(translationPrompt, source, target, target),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return cleanResponse(resp.Choices[0].Message.Content), nil
}

// cleanResponse strips the quoting and whitespace models sometimes wrap
// around a short answer.
func cleanResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.Trim(content, `"'`)
	return strings.TrimSpace(content)
}
