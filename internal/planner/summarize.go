package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/helvia-io/maestro/internal/tools"
)

// Summarizer turns step results into the final user-facing reply.
type Summarizer interface {
	Summarize(ctx context.Context, intent Intent, results []*tools.Result, message string) string
}

// HeuristicSummarizer produces fixed per-intent replies. Failures always win
// over the intent template so the user sees what went wrong.
type HeuristicSummarizer struct{}

// Summarize implements Summarizer.
func (HeuristicSummarizer) Summarize(_ context.Context, intent Intent, results []*tools.Result, _ string) string {
	var succeeded int
	var failures []string
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failures = append(failures, r.Message)
		}
	}

	if len(failures) > 0 {
		return fmt.Sprintf("İşlem tamamlanamadı: %s", strings.Join(failures, ", "))
	}

	switch intent {
	case IntentEmailSummary:
		return fmt.Sprintf("E-posta özetiniz hazır: %d işlem tamamlandı.", succeeded)
	case IntentCreateEvent:
		return "Etkinlik başarıyla oluşturuldu ve takvime eklendi."
	case IntentCreateTask:
		return "Görev başarıyla oluşturuldu ve görev listenize eklendi."
	case IntentCreateNote:
		return "Not başarıyla oluşturuldu ve kaydedildi."
	default:
		return fmt.Sprintf("İşlemleriniz tamamlandı: %d başarılı.", succeeded)
	}
}

const summarizeTimeout = 10 * time.Second

// OpenAISummarizer rewrites the heuristic reply with an LLM pass when step
// data is available. Any API failure falls back to the heuristic text, so a
// missing or exhausted key never breaks a turn.
type OpenAISummarizer struct {
	client   *openai.Client
	model    string
	fallback HeuristicSummarizer
}

// NewOpenAISummarizer creates a summarizer backed by the OpenAI chat API.
func NewOpenAISummarizer(apiKey string) *OpenAISummarizer {
	return &OpenAISummarizer{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}
}

// Summarize implements Summarizer.
func (s *OpenAISummarizer) Summarize(ctx context.Context, intent Intent, results []*tools.Result, message string) string {
	base := s.fallback.Summarize(ctx, intent, results, message)

	var details []string
	for _, r := range results {
		if r.Success && r.Message != "" {
			details = append(details, r.Message)
		}
	}
	if len(details) == 0 {
		return base
	}

	ctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Sen bir kişisel asistansın. Kullanıcıya yapılan işlemleri " +
					"tek kısa paragrafta, Türkçe olarak özetle.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Kullanıcı isteği: %s\nİşlem sonuçları: %s",
					message, strings.Join(details, "; ")),
			},
		},
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil || len(resp.Choices) == 0 {
		log.Debug().Err(err).Msg("summarizer fell back to heuristic reply")
		return base
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
