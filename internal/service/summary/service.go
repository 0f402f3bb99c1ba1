// Package summary condenses recent transcript rows into a short digest via
// the completion model.
package summary

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/jamjam-ai/jamjam/internal/model/chat"
	"github.com/jamjam-ai/jamjam/internal/model/outcome"
)

const summarySystemPrompt = `아래는 사용자와 챗봇의 대화 기록이다.
최근 대화 맥락을 5줄 이내로 핵심만 요약하라.`

// Reader loads the newest transcript rows for a member, newest first.
type Reader interface {
	Recent(ctx context.Context, memberID int64, limit int) ([]chat.Log, error)
}

// Service renders recent exchanges as U:/B: lines and asks the model for a
// bounded summary. Failures degrade to an empty value; nothing escapes as an
// error.
type Service struct {
	reader Reader
	chain  compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the summarizer. Either dependency may be nil; the service
// then degrades on every call instead of failing construction.
func NewService(ctx context.Context, chatModel model.BaseChatModel, reader Reader) (*Service, error) {
	svc := &Service{reader: reader}
	if chatModel == nil {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(summarySystemPrompt),
		schema.UserMessage("{conversation}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile summary chain: %w", err)
	}

	svc.chain = runnable
	return svc, nil
}

// Summarize condenses the newest `limit` exchanges for a member.
// No rows is a normal empty result, not a degraded one.
func (s *Service) Summarize(ctx context.Context, memberID int64, limit int) outcome.Result {
	if s.reader == nil {
		return outcome.Degrade("transcript store unavailable")
	}
	if s.chain == nil {
		return outcome.Degrade("completion model unavailable")
	}

	logs, err := s.reader.Recent(ctx, memberID, limit)
	if err != nil {
		log.Printf("[summary] load recent logs failed: %v", err)
		return outcome.Degrade(fmt.Sprintf("load recent logs: %v", err))
	}
	if len(logs) == 0 {
		return outcome.Ok("")
	}

	msg, err := s.chain.Invoke(ctx, map[string]any{"conversation": renderConversation(logs)})
	if err != nil {
		log.Printf("[summary] summarize invoke failed: %v", err)
		return outcome.Degrade(fmt.Sprintf("summarize invoke: %v", err))
	}
	if msg == nil {
		return outcome.Degrade("empty summarizer response")
	}
	return outcome.Ok(strings.TrimSpace(msg.Content))
}

// renderConversation reverses newest-first rows into chronological U:/B:
// lines.
func renderConversation(logs []chat.Log) string {
	var b strings.Builder
	for i := len(logs) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "U: %s\nB: %s\n", logs[i].UserText, logs[i].BotText)
	}
	return b.String()
}
