package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func settledTrip() *entity.Trip {
	return &entity.Trip{
		ID:                "trip-1",
		DestinationCityID: "BER",
		StartDate:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Estimate: entity.CostEstimate{
			Transport: decimal.NewFromInt(600),
			Hotel:     decimal.NewFromInt(600),
			PerDiem:   decimal.NewFromInt(600),
			Total:     decimal.NewFromInt(1800),
			Days:      3,
			Nights:    2,
			Currency:  "PLN",
		},
		Settlement: &entity.Settlement{
			TripID:   "trip-1",
			Currency: "PLN",
			Items: []entity.LineItem{
				{Kind: entity.ItemKindHotel, Description: "Hotel", Amount: decimal.NewFromInt(950), Payer: entity.PayerEmployee},
				{Kind: entity.ItemKindPerDiem, Description: "Per diem", Amount: decimal.NewFromInt(600), Payer: entity.PayerEmployer},
				{Kind: entity.ItemKindOther, Description: "Taxi", Amount: decimal.RequireFromString("45.5"), Payer: entity.PayerEmployee, ReceiptRef: "r-9"},
			},
		},
	}
}

// fakeOpenAI answers chat completions with content and records the last request body
func fakeOpenAI(t *testing.T, content string, lastBody *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if lastBody != nil {
			_ = json.NewDecoder(r.Body).Decode(lastBody)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReviewer_Review(t *testing.T) {
	var body map[string]any
	srv := fakeOpenAI(t, `{"verdict":"needs_attention","concerns":["Hotel 58% above plan"," "],"summary":"Hotel overspend","confidence":0.82}`, &body)

	r := NewReviewer(Config{APIKey: "test", BaseURL: srv.URL + "/v1"}, nil, zap.NewNop())
	result, err := r.Review(context.Background(), settledTrip())
	require.NoError(t, err)

	assert.Equal(t, port.VerdictNeedsAttention, result.Verdict)
	assert.Equal(t, []string{"Hotel 58% above plan"}, result.Concerns)
	assert.Equal(t, "Hotel overspend", result.Summary)
	assert.InDelta(t, 0.82, result.Confidence, 1e-9)

	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])

	messages := body["messages"].([]any)
	user := messages[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "[hotel] Hotel: 950.00 paid by EMPLOYEE")
	assert.Contains(t, user, "(receipt r-9)")
	assert.Contains(t, user, "total: 1800.00")
	assert.Contains(t, user, "Reported total: 1595.50, owed to employee: 1595.50")
}

func TestReviewer_ExtractsWrappedJSON(t *testing.T) {
	srv := fakeOpenAI(t, "Here you go:\n```json\n{\"verdict\":\"CONSISTENT\",\"summary\":\"ok {fine}\",\"confidence\":3}\n```", nil)

	r := NewReviewer(Config{APIKey: "test", BaseURL: srv.URL + "/v1"}, nil, zap.NewNop())
	result, err := r.Review(context.Background(), settledTrip())
	require.NoError(t, err)
	assert.Equal(t, port.VerdictConsistent, result.Verdict)
	assert.Equal(t, "ok {fine}", result.Summary)
	assert.Equal(t, 1.0, result.Confidence, "clamped")
	assert.Empty(t, result.Concerns)
}

func TestReviewer_Errors(t *testing.T) {
	srv := fakeOpenAI(t, "not json at all", nil)
	r := NewReviewer(Config{APIKey: "test", BaseURL: srv.URL + "/v1"}, nil, zap.NewNop())

	_, err := r.Review(context.Background(), settledTrip())
	assert.Error(t, err)

	trip := settledTrip()
	trip.Settlement = nil
	_, err = r.Review(context.Background(), trip)
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestToReviewResult_UnknownVerdict(t *testing.T) {
	result := toReviewResult(reviewResponse{Verdict: "maybe", Confidence: -1})
	assert.Equal(t, port.VerdictNeedsAttention, result.Verdict)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"text {\"a\":{\"b\":\"}\"}} tail", `{"a":{"b":"}"}}`},
		{"no json", ""},
		{"{unterminated", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractJSON(tt.in), tt.in)
	}
}

func TestLoadPrompts(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)
	assert.True(t, strings.Contains(p.SettlementReview.System, "settlements"))
	assert.Equal(t, 800, p.SettlementReview.MaxTokens)

	_, err = parsePrompts([]byte("settlement_review:\n  user_template: \"{{.Broken\"\n"))
	assert.Error(t, err)
}
