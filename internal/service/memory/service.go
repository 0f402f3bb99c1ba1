// Package memory implements hybrid retrieval: vector similarity seeded
// anchors expanded into relational time windows, with a plain-similarity
// fallback chain.
package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jamjam-ai/jamjam/internal/model/chat"
	mem "github.com/jamjam-ai/jamjam/internal/model/memory"
	"github.com/jamjam-ai/jamjam/internal/model/outcome"
)

// windowSeparator joins multiple anchor windows in the final context string.
const windowSeparator = "\n---\n"

// Index is the similarity-search capability. memberID == 0 means unscoped.
type Index interface {
	Search(ctx context.Context, query string, topK int, memberID int64) ([]mem.Hit, error)
}

// WindowReader expands a point in time into the surrounding transcript rows.
type WindowReader interface {
	Window(ctx context.Context, memberID int64, center time.Time, window time.Duration) ([]chat.Log, error)
}

// Service coordinates the retrieval fallback chain. transcripts may be nil:
// without a relational capability every call takes the plain-search branch.
type Service struct {
	index       Index
	transcripts WindowReader
	hints       []string
}

// NewService builds the retrieval service with the configured recall-hint
// phrase list.
func NewService(index Index, transcripts WindowReader, hints []string) *Service {
	return &Service{index: index, transcripts: transcripts, hints: hints}
}

// LooksLikeRecall reports whether the input contains any recall-signal
// phrase. Plain substring match, case exact.
func (s *Service) LooksLikeRecall(input string) bool {
	for _, h := range s.hints {
		if strings.Contains(input, h) {
			return true
		}
	}
	return false
}

// RecallOrGeneral returns a memory context for the input. Recall intent plus
// anchors with parseable timestamps yields time-window expansions; every
// other path falls back to plain similarity search. The result is uncapped
// here; truncation is the caller's policy.
func (s *Service) RecallOrGeneral(ctx context.Context, input string, memberID int64, topK, windowMinutes int) outcome.Result {
	if s.index == nil {
		return outcome.Degrade("vector index unavailable")
	}
	if s.transcripts == nil || !s.LooksLikeRecall(input) {
		return s.plainSearch(ctx, input, memberID, topK)
	}

	anchors, err := s.index.Search(ctx, input, topK, memberID)
	if err != nil {
		log.Printf("[memory] anchor search failed: %v", err)
		return outcome.Degrade(fmt.Sprintf("anchor search: %v", err))
	}

	window := time.Duration(windowMinutes) * time.Minute
	contexts := make([]string, 0, len(anchors))
	for _, anchor := range anchors {
		center, ok := anchorTime(anchor)
		if !ok {
			continue
		}

		logs, err := s.transcripts.Window(ctx, memberID, center, window)
		if err != nil {
			log.Printf("[memory] window expansion failed: %v", err)
			continue
		}
		if rendered := renderWindow(logs); rendered != "" {
			contexts = append(contexts, rendered)
		}
	}

	if len(contexts) == 0 {
		return s.plainSearch(ctx, input, memberID, topK)
	}
	return outcome.Ok(strings.Join(contexts, windowSeparator))
}

// plainSearch is the terminal fallback: top-K contents joined by content
// only, no timestamps.
func (s *Service) plainSearch(ctx context.Context, input string, memberID int64, topK int) outcome.Result {
	hits, err := s.index.Search(ctx, input, topK, memberID)
	if err != nil {
		log.Printf("[memory] similarity search failed: %v", err)
		return outcome.Degrade(fmt.Sprintf("similarity search: %v", err))
	}

	contents := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Content != "" {
			contents = append(contents, h.Content)
		}
	}
	return outcome.Ok(strings.Join(contents, "\n"))
}

// anchorTime parses the anchor's stored timestamp. Unparseable records are
// skipped, not fatal.
func anchorTime(hit mem.Hit) (time.Time, bool) {
	raw := hit.Metadata["created_at"]
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// renderWindow formats rows as alternating user/bot lines tagged with ISO
// timestamps.
func renderWindow(logs []chat.Log) string {
	if len(logs) == 0 {
		return ""
	}

	lines := make([]string, 0, len(logs)*2)
	for _, l := range logs {
		when := l.CreatedAt.UTC().Format(time.RFC3339)
		lines = append(lines, fmt.Sprintf("[%s][USER] %s", when, l.UserText))
		lines = append(lines, fmt.Sprintf("[%s][BOT ] %s", when, l.BotText))
	}
	return strings.Join(lines, "\n")
}
