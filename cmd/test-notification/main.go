package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/business-trip/internal/config"
	"github.com/garyjia/business-trip/internal/infrastructure/external/lark"
)

// Sends one Lark message with the configured credentials, without the rest of the service

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	userID := flag.String("user", "", "Employee id to message; empty posts to the approver chat")
	text := flag.String("text", "Business trip notification test", "Message text")
	timeout := flag.Duration("timeout", 15*time.Second, "API call timeout")
	flag.Parse()

	fmt.Println("=== Lark IM Notification Test ===")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.LarkEnabled() {
		log.Fatalf("lark.app_id is empty; set LARK_APP_ID and LARK_APP_SECRET")
	}
	if *userID == "" && cfg.Lark.ApproverChatID == "" {
		log.Fatalf("no -user given and lark.approver_chat_id is empty")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	fmt.Printf("App ID: %s\n", mask(cfg.Lark.AppID))
	fmt.Printf("User id type: %s\n", cfg.Lark.UserIDType)

	sdk := lark.NewSDKClient(lark.Config{
		AppID:          cfg.Lark.AppID,
		AppSecret:      cfg.Lark.AppSecret,
		BaseURL:        cfg.Lark.BaseURL,
		ApproverChatID: cfg.Lark.ApproverChatID,
		UserIDType:     cfg.Lark.UserIDType,
	}, logger)
	notifier := lark.NewNotifier(sdk, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *userID != "" {
		fmt.Printf("Sending to user %s...\n", *userID)
		err = notifier.NotifyUser(ctx, *userID, *text)
	} else {
		fmt.Printf("Sending to approver chat %s...\n", cfg.Lark.ApproverChatID)
		err = notifier.NotifyApprovers(ctx, *text)
	}
	if err != nil {
		log.Fatalf("Send failed: %v", err)
	}

	fmt.Println("Message sent")
}

func mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
