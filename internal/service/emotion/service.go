package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const classifierSystemPrompt = `너는 한국어 문장의 감정을 분류하는 분류기다.
감정은 반드시 다음 여섯 가지 중 하나다: 분노, 불안, 슬픔, 평온, 당황, 기쁨.
JSON 한 개만 출력하라: {"emotion": "<라벨>"}`

const classifierUserPrompt = `문장: {text}`

// Config controls the emotion service.
type Config struct {
	Enabled bool
}

// Service classifies a sentence into the closed six-label set. When the LLM
// classifier is unavailable or fails it falls back to keyword heuristics, so
// Classify is total: it always returns a valid label.
type Service struct {
	enabled    bool
	classifier compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the emotion service. chatModel may be nil; the service
// then runs on heuristics only.
func NewService(ctx context.Context, chatModel model.BaseChatModel, cfg Config) (*Service, error) {
	svc := &Service{enabled: cfg.Enabled && chatModel != nil}
	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(classifierUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile emotion classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the LLM classifier path is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Classify returns the emotion label for text. Never fails.
func (s *Service) Classify(ctx context.Context, text string) Label {
	if !s.Enabled() {
		return Analyze(text)
	}

	msg, err := s.classifier.Invoke(ctx, map[string]any{"text": strings.TrimSpace(text)})
	if err != nil {
		log.Printf("[emotion] classifier invoke failed, using heuristics: %v", err)
		return Analyze(text)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return Analyze(text)
	}

	label, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[emotion] classifier output parse failed, using heuristics: %v", err)
		return Analyze(text)
	}
	return label
}

// parseClassifierOutput extracts the label from the model's JSON answer,
// tolerating surrounding prose.
func parseClassifierOutput(content string) (Label, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("missing json object")
	}

	var payload struct {
		Emotion string `json:"emotion"`
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return "", err
	}

	label, ok := Valid(payload.Emotion)
	if !ok {
		return "", fmt.Errorf("label %q outside the closed set", payload.Emotion)
	}
	return label, nil
}
