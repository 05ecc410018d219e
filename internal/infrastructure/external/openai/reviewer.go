package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config holds OpenAI connection settings
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Reviewer implements port.SettlementReviewer with a chat completion
type Reviewer struct {
	client  *openai.Client
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewReviewer creates a new settlement reviewer
func NewReviewer(cfg Config, prompts *PromptConfig, logger *zap.Logger) *Reviewer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Reviewer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		prompts: prompts,
		logger:  logger,
	}
}

type reviewItem struct {
	Kind        string
	Description string
	Amount      string
	Payer       string
	ReceiptRef  string
}

type reviewPrompt struct {
	TripID      string
	Destination string
	StartDate   string
	EndDate     string
	Days        int
	Nights      int
	Currency    string
	Planned     struct{ Transport, Hotel, PerDiem, Total string }
	Items       []reviewItem
	Total       string
	Owed        string
}

type reviewResponse struct {
	Verdict    string   `json:"verdict"`
	Concerns   []string `json:"concerns"`
	Summary    string   `json:"summary"`
	Confidence float64  `json:"confidence"`
}

// Review asks the model whether the submitted settlement matches the trip plan
func (r *Reviewer) Review(ctx context.Context, trip *entity.Trip) (*port.ReviewResult, error) {
	if trip.Settlement == nil {
		return nil, fmt.Errorf("%w: trip %s has no submitted settlement", entity.ErrValidation, trip.ID)
	}

	prompt, err := renderTemplate(r.prompts.SettlementReview.UserTemplate, buildReviewPrompt(trip))
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Reviewing settlement",
		zap.String("trip_id", trip.ID),
		zap.Int("items", len(trip.Settlement.Items)))

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: r.prompts.SettlementReview.Temperature,
		MaxTokens:   r.prompts.SettlementReview.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: r.prompts.SettlementReview.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		r.logger.Error("OpenAI API call failed", zap.String("trip_id", trip.ID), zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	var parsed reviewResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		jsonStr := extractJSON(content)
		if jsonStr == "" || json.Unmarshal([]byte(jsonStr), &parsed) != nil {
			r.logger.Error("Failed to parse OpenAI response",
				zap.Error(err),
				zap.String("content", content))
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	result := toReviewResult(parsed)
	r.logger.Info("Settlement review completed",
		zap.String("trip_id", trip.ID),
		zap.String("verdict", string(result.Verdict)),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

func buildReviewPrompt(trip *entity.Trip) reviewPrompt {
	s := trip.Settlement
	totals := s.Totals()

	p := reviewPrompt{
		TripID:      trip.ID,
		Destination: trip.DestinationCityID,
		StartDate:   trip.StartDate.Format(entity.DateLayout),
		EndDate:     trip.EndDate.Format(entity.DateLayout),
		Days:        trip.Estimate.Days,
		Nights:      trip.Estimate.Nights,
		Currency:    s.Currency,
		Total:       totals.TotalAmount.StringFixed(2),
		Owed:        totals.AmountOwedToEmployee.StringFixed(2),
	}
	p.Planned.Transport = trip.Estimate.Transport.StringFixed(2)
	p.Planned.Hotel = trip.Estimate.Hotel.StringFixed(2)
	p.Planned.PerDiem = trip.Estimate.PerDiem.StringFixed(2)
	p.Planned.Total = trip.Estimate.Total.StringFixed(2)

	for _, item := range s.Items {
		p.Items = append(p.Items, reviewItem{
			Kind:        string(item.Kind),
			Description: item.Description,
			Amount:      item.Amount.StringFixed(2),
			Payer:       string(item.Payer),
			ReceiptRef:  item.ReceiptRef,
		})
	}
	return p
}

// toReviewResult normalizes the model output. Anything but a clear
// CONSISTENT verdict is reported as needing attention.
func toReviewResult(r reviewResponse) *port.ReviewResult {
	verdict := port.VerdictNeedsAttention
	if strings.EqualFold(strings.TrimSpace(r.Verdict), string(port.VerdictConsistent)) {
		verdict = port.VerdictConsistent
	}

	confidence := r.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	concerns := make([]string, 0, len(r.Concerns))
	for _, c := range r.Concerns {
		if c = strings.TrimSpace(c); c != "" {
			concerns = append(concerns, c)
		}
	}

	return &port.ReviewResult{
		Verdict:    verdict,
		Concerns:   concerns,
		Summary:    strings.TrimSpace(r.Summary),
		Confidence: confidence,
	}
}

// extractJSON returns the first balanced JSON object in content, or ""
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

// Verify interface compliance
var _ port.SettlementReviewer = (*Reviewer)(nil)
