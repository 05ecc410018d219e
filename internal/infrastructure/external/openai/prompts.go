package openai

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptTemplate is one system prompt plus the user template and sampling parameters
type PromptTemplate struct {
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	System       string  `yaml:"system"`
	UserTemplate string  `yaml:"user_template"`
}

// PromptConfig holds the prompts used by the settlement reviewer
type PromptConfig struct {
	SettlementReview PromptTemplate `yaml:"settlement_review"`
}

// DefaultPrompts returns the prompts compiled into the binary
func DefaultPrompts() *PromptConfig {
	prompts, err := parsePrompts(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts: %v", err))
	}
	return prompts
}

// LoadPrompts loads prompt configuration from YAML file, or the defaults when path is empty
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	if promptsPath == "" {
		return DefaultPrompts(), nil
	}

	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return parsePrompts(data)
}

func parsePrompts(data []byte) (*PromptConfig, error) {
	var prompts PromptConfig
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	if prompts.SettlementReview.UserTemplate == "" {
		return nil, fmt.Errorf("settlement_review.user_template is required")
	}
	if _, err := template.New("prompt").Parse(prompts.SettlementReview.UserTemplate); err != nil {
		return nil, fmt.Errorf("invalid settlement_review.user_template: %w", err)
	}
	return &prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data any) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
