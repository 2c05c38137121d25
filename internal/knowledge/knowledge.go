// Package knowledge answers free-form guest questions about the restaurant
// using the Gemini API, grounded on the tenant's profile.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/emmanuel582/backendtablenow/platform/config"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"google.golang.org/genai"
)

// TenantProfile is the restaurant context handed to the model alongside the
// guest's question.
type TenantProfile struct {
	Name         string
	Capacity     int
	MaxPartySize int
}

// Service answers guest questions during a call.
type Service interface {
	AnswerQuestion(ctx context.Context, profile TenantProfile, question string) (string, error)
}

const fallbackAnswer = "I'm sorry, I don't have that information right now. " +
	"Our team will be happy to help when you arrive, or you can call back during opening hours."

const systemInstruction = `You are the phone assistant of a restaurant. Answer the caller's
question briefly and politely, in at most three sentences, using only the
restaurant details provided. If the details do not cover the question, say you
are not sure and suggest asking the staff. Never invent opening hours, menu
items or prices.`

// GeminiService implements Service on the Gemini API.
type GeminiService struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// NewGeminiService creates the Gemini-backed answerer.
func NewGeminiService(ctx context.Context, cfg config.KnowledgeConfig, log *logger.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiService{
		client: client,
		model:  "gemini-2.0-flash",
		log:    log,
	}, nil
}

// AnswerQuestion asks the model the guest's question with the tenant profile
// as grounding. Model failures degrade to a polite fallback answer rather
// than an error: the caller is mid-conversation and must hear something.
func (s *GeminiService) AnswerQuestion(ctx context.Context, profile TenantProfile, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return fallbackAnswer, nil
	}

	prompt := fmt.Sprintf(
		"Restaurant details:\nName: %s\nSeating capacity: %d\nLargest bookable party: %d\n\nCaller question: %s",
		profile.Name, profile.Capacity, profile.MaxPartySize, question)

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		s.log.Error("knowledge answer failed", "error", err)
		return fallbackAnswer, nil
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return fallbackAnswer, nil
	}
	return answer, nil
}

// StaticService answers every question with the fallback line. Used when no
// Gemini key is configured.
type StaticService struct{}

func (StaticService) AnswerQuestion(context.Context, TenantProfile, string) (string, error) {
	return fallbackAnswer, nil
}

var (
	_ Service = (*GeminiService)(nil)
	_ Service = StaticService{}
)
