package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/garyjia/business-trip/internal/infrastructure/external/openai"
)

func main() {
	// Parse command line flags
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	baseURL := flag.String("base-url", "", "OpenAI compatible endpoint")
	model := flag.String("model", "", "Model name (default gpt-4o-mini)")
	promptsFile := flag.String("prompts", "", "Path to a prompts.yaml override")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Initialize logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Get API key from flag or environment
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-gpt-connection --key sk-... [--prompts <path>] [--timeout 30s]\n")
		os.Exit(1)
	}

	fmt.Println("=== Settlement Review Connection Test ===")
	fmt.Printf("  API key length: %d chars\n", len(*apiKey))
	fmt.Printf("  Timeout: %v\n", *timeout)
	fmt.Println()

	prompts, err := openai.LoadPrompts(*promptsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prompts: %v\n", err)
		os.Exit(1)
	}

	reviewer := openai.NewReviewer(openai.Config{
		APIKey:  *apiKey,
		BaseURL: *baseURL,
		Model:   *model,
		Timeout: *timeout,
	}, prompts, logger)

	trip := sampleTrip()
	fmt.Printf("Sample trip %s to %s, planned %s %s\n",
		trip.ID, trip.DestinationCityID, trip.Estimate.Total.StringFixed(2), trip.Estimate.Currency)
	for _, item := range trip.Settlement.Items {
		fmt.Printf("  [%s] %s: %s paid by %s\n", item.Kind, item.Description, item.Amount.StringFixed(2), item.Payer)
	}
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	startTime := time.Now()
	result, err := reviewer.Review(ctx, trip)
	duration := time.Since(startTime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: review call failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Check the API key, network access and quota.\n")
		os.Exit(1)
	}

	fmt.Printf("Response time: %v\n\n", duration)
	fmt.Println("=== Review Result ===")
	fmt.Printf("Verdict: %s\n", result.Verdict)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	fmt.Printf("Summary: %s\n", result.Summary)
	for i, c := range result.Concerns {
		fmt.Printf("  %d. %s\n", i+1, c)
	}

	fmt.Println("\n=== Full Response (JSON) ===")
	jsonBytes, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(jsonBytes))
}

// sampleTrip is a settled Warsaw to Berlin trip with a hotel well over plan
func sampleTrip() *entity.Trip {
	return &entity.Trip{
		ID:                "sample-trip",
		RequesterID:       "emp-1",
		OriginCityID:      "WAW",
		DestinationCityID: "BER",
		StartDate:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Purpose:           "Partner workshop",
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
			TripID:   "sample-trip",
			Currency: "PLN",
			Items: []entity.LineItem{
				{Kind: entity.ItemKindTransport, Description: "Train tickets", Amount: decimal.NewFromInt(600), Payer: entity.PayerEmployer},
				{Kind: entity.ItemKindHotel, Description: "Hotel", Amount: decimal.NewFromInt(1450), Payer: entity.PayerEmployee},
				{Kind: entity.ItemKindPerDiem, Description: "Per diem", Amount: decimal.NewFromInt(600), Payer: entity.PayerEmployer},
			},
		},
	}
}

var _ port.SettlementReviewer = (*openai.Reviewer)(nil)
