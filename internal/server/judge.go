package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"letter-rush/internal/config"
)

// answerJudge decides which submitted words are valid for a letter and
// category. The OpenAI implementation judges a whole round in one call; the
// fallback implementation is deterministic and never fails. Selection between
// them is an explicit decision in the validation pipeline, never inferred
// mid-batch.
type answerJudge interface {
	Judge(ctx context.Context, batch judgeBatch) (map[string]judgeVerdict, error)
}

type judgeBatch struct {
	Letter     string
	Categories []string
	Entries    []judgeEntry
}

type judgeEntry struct {
	Category string `json:"category"`
	Word     string `json:"word"`
}

type judgeVerdict struct {
	IsValid bool   `json:"isValid"`
	Reason  string `json:"reason"`
}

// judgeKey is the canonical lookup key for a verdict: lower-cased
// "category:word".
func judgeKey(category, word string) string {
	return strings.ToLower(strings.TrimSpace(category)) + ":" + strings.ToLower(strings.TrimSpace(word))
}

// fallbackJudge applies the deterministic rule: a word is valid iff it is
// non-empty and starts with the round's letter, case-insensitively.
type fallbackJudge struct{}

func (fallbackJudge) Judge(_ context.Context, batch judgeBatch) (map[string]judgeVerdict, error) {
	out := make(map[string]judgeVerdict, len(batch.Entries))
	for _, entry := range batch.Entries {
		out[judgeKey(entry.Category, entry.Word)] = judgeVerdict{
			IsValid: startsWithLetter(entry.Word, batch.Letter),
			Reason:  "fallback",
		}
	}
	return out, nil
}

func startsWithLetter(word, letter string) bool {
	word = strings.TrimSpace(word)
	if word == "" || letter == "" {
		return false
	}
	return strings.EqualFold(word[:1], letter[:1])
}

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openAIJudge struct {
	cfg    config.Config
	client *http.Client
}

func newOpenAIJudge(cfg config.Config) *openAIJudge {
	return &openAIJudge{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.JudgeTimeoutSeconds) * time.Second},
	}
}

func (j *openAIJudge) Judge(ctx context.Context, batch judgeBatch) (map[string]judgeVerdict, error) {
	if strings.TrimSpace(j.cfg.OpenAIAPIKey) == "" {
		return nil, errors.New("OpenAI API key is not configured")
	}
	systemPrompt, err := readPromptFile(j.cfg.JudgePromptSystemPath)
	if err != nil {
		return nil, err
	}
	userTemplate, err := readPromptFile(j.cfg.JudgePromptUserPath)
	if err != nil {
		return nil, err
	}
	entriesJSON, err := json.Marshal(batch.Entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build judge request")
	}
	userPrompt := strings.ReplaceAll(userTemplate, "{{letter}}", batch.Letter)
	userPrompt = strings.ReplaceAll(userPrompt, "{{categories}}", strings.Join(batch.Categories, ", "))
	userPrompt = strings.ReplaceAll(userPrompt, "{{answers}}", string(entriesJSON))

	reqBody := openAIChatRequest{
		Model: j.cfg.OpenAIModel,
		Messages: []openAIChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0,
		MaxTokens:   1200,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build judge request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(j.cfg.JudgeTimeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build judge request")
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(j.cfg.OpenAIAPIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach judge")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read judge response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("judge request failed (%d)", resp.StatusCode)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse judge response")
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("judge error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("judge returned no choices")
	}
	return parseVerdicts(parsed.Choices[0].Message.Content)
}

func readPromptFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt template: %s", path)
	}
	return strings.TrimSpace(string(content)), nil
}

// parseVerdicts extracts the "category:word" -> verdict map from the model's
// reply, tolerating markdown code fences around the JSON.
func parseVerdicts(raw string) (map[string]judgeVerdict, error) {
	clean := strings.TrimSpace(raw)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimPrefix(clean, "```")
		if end := strings.LastIndex(clean, "```"); end >= 0 {
			clean = clean[:end]
		}
		clean = strings.TrimSpace(clean)
	}
	var verdicts map[string]judgeVerdict
	if err := json.Unmarshal([]byte(clean), &verdicts); err != nil {
		return nil, fmt.Errorf("judge verdicts were not valid JSON")
	}
	if len(verdicts) == 0 {
		return nil, errors.New("judge returned no verdicts")
	}
	out := make(map[string]judgeVerdict, len(verdicts))
	for key, verdict := range verdicts {
		out[strings.ToLower(strings.TrimSpace(key))] = verdict
	}
	return out, nil
}
