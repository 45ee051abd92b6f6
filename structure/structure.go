// Package structure turns raw document text into structured book using hosted
// language model.
package structure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"pdf2epub/book"
	"pdf2epub/common"
	"pdf2epub/config"
)

// ChatClient is the part of model service API we need. *openai.Client
// satisfies it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Structurer asks the model to infer title, author and chapters.
type Structurer struct {
	client      ChatClient
	model       string
	temperature float32
	log         *zap.Logger
}

// New creates Structurer talking to OpenAI compatible endpoint from
// configuration. Credential must be present.
func New(cfg *config.StructurerConfig, log *zap.Logger) (*Structurer, error) {
	if len(cfg.APIKey) == 0 {
		return nil, fmt.Errorf("%w: set structurer.api_key or PDF2EPUB_API_KEY", common.ErrMissingCredential)
	}

	oc := openai.DefaultConfig(cfg.APIKey.Reveal())
	if len(cfg.BaseURL) > 0 {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return NewWithClient(openai.NewClientWithConfig(oc), cfg.Model, cfg.Temperature, log), nil
}

func NewWithClient(client ChatClient, model string, temperature float32, log *zap.Logger) *Structurer {
	return &Structurer{
		client:      client,
		model:       model,
		temperature: temperature,
		log:         log.Named("structure"),
	}
}

// Structure performs single model request. All failures are reported as
// common.ErrStructuringFailed.
func (s *Structurer) Structure(ctx context.Context, text string, p common.Progress) (*book.Book, error) {
	if p == nil {
		p = common.Discard
	}
	if s.client == nil {
		return nil, fmt.Errorf("%w: no model client", common.ErrDependencyUnavailable)
	}

	p.Report(10, common.StepAnalyzingContent)

	s.log.Debug("Requesting structure", zap.String("model", s.model), zap.Int("length", len(text)))
	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, s.request(text))
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			s.log.Debug("Model service error", zap.Int("status", apiErr.HTTPStatusCode), zap.Any("code", apiErr.Code), zap.String("message", apiErr.Message))
		}
		return nil, fmt.Errorf("%w: model request: %w", common.ErrStructuringFailed, err)
	}
	p.Report(80, common.StepAnalyzingContent)

	s.log.Debug("Model responded",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt tokens", resp.Usage.PromptTokens),
		zap.Int("completion tokens", resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", common.ErrStructuringFailed)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		s.log.Warn("Model response was truncated, it is unlikely to be valid")
	}

	b, err := decode(choice.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStructuringFailed, err)
	}
	p.Report(100, common.StepAnalyzingContent)

	s.log.Info("Content structured", zap.String("title", b.Title), zap.String("author", b.Author), zap.Int("chapters", len(b.Chapters)))
	return b, nil
}

func (s *Structurer) request(text string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: bookSchema,
				Strict: true,
			},
		},
	}
}

// payload differs from book.Book so absent fields could be detected.
type payload struct {
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Chapters *[]chap `json:"chapters"`
}

type chap struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func decode(content string) (*book.Book, error) {
	data := stripFence(content)
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}

	var pl payload
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&pl); err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}
	if len(strings.TrimSpace(pl.Title)) == 0 {
		return nil, errors.New("invalid book structure: no title")
	}
	if pl.Chapters == nil {
		return nil, errors.New("invalid book structure: no chapters")
	}

	b := &book.Book{
		Title:    pl.Title,
		Author:   pl.Author,
		Chapters: make([]book.Chapter, 0, len(*pl.Chapters)),
	}
	if len(strings.TrimSpace(b.Author)) == 0 {
		b.Author = unknownAuthor
	}
	for _, c := range *pl.Chapters {
		b.Chapters = append(b.Chapters, book.Chapter{Title: c.Title, Content: c.Content})
	}
	return b, nil
}

// stripFence removes Markdown code fence some models wrap JSON into.
func stripFence(content string) []byte {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	// optional language tag
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
