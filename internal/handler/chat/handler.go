package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	chatModel "github.com/jamjam-ai/jamjam/internal/model/chat"
	"github.com/jamjam-ai/jamjam/internal/model/memory"
	"github.com/jamjam-ai/jamjam/internal/service/emotion"
	"github.com/jamjam-ai/jamjam/pkg/utils"
)

// TurnRunner executes one chat turn and returns the answer.
type TurnRunner interface {
	RunTurn(ctx context.Context, turn chatModel.Turn) (string, error)
}

// TranscriptSaver persists a finished exchange.
type TranscriptSaver interface {
	Save(ctx context.Context, record chatModel.Log) (int64, error)
}

// MemoryIndexer feeds utterances into the similarity index.
type MemoryIndexer interface {
	Add(ctx context.Context, record memory.Record) error
}

// Classifier labels the user's utterance for the response payload.
type Classifier interface {
	Classify(ctx context.Context, text string) emotion.Label
}

// Handler serves the chat turn endpoint. Transcript and index writes are
// best effort: a persistence failure is logged, never surfaced to the
// client.
type Handler struct {
	runner      TurnRunner
	transcripts TranscriptSaver
	index       MemoryIndexer
	classifier  Classifier
}

// New creates the chat handler. transcripts and index may be nil when the
// corresponding backends are not configured.
func New(runner TurnRunner, transcripts TranscriptSaver, index MemoryIndexer, classifier Classifier) *Handler {
	return &Handler{
		runner:      runner,
		transcripts: transcripts,
		index:       index,
		classifier:  classifier,
	}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleTurn)
}

type turnRequest struct {
	Input          string `json:"input"`
	MemberID       int64  `json:"member_id"`
	SessionID      string `json:"session_id,omitempty"`
	ForceSummary   bool   `json:"force_summary,omitempty"`
	DisablePreload bool   `json:"disable_preload,omitempty"`
}

type turnResponse struct {
	Output      string `json:"output"`
	UserEmotion string `json:"user_emotion,omitempty"`
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "chat agent unavailable")
		return
	}

	var payload turnRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Input) == "" {
		utils.RespondError(w, http.StatusBadRequest, "input is required")
		return
	}
	if payload.MemberID == 0 {
		utils.RespondError(w, http.StatusBadRequest, "member_id is required")
		return
	}

	turn := chatModel.Turn{
		Input:          payload.Input,
		MemberID:       payload.MemberID,
		SessionID:      payload.SessionID,
		ForceSummary:   payload.ForceSummary,
		DisablePreload: payload.DisablePreload,
	}

	output, err := h.runner.RunTurn(r.Context(), turn)
	if err != nil {
		log.Printf("[chat] turn failed for member=%d: %v", payload.MemberID, err)
		utils.RespondError(w, http.StatusInternalServerError, "turn failed")
		return
	}

	resp := turnResponse{Output: output}
	if h.classifier != nil {
		resp.UserEmotion = string(h.classifier.Classify(r.Context(), payload.Input))
	}

	h.persist(r.Context(), payload.MemberID, payload.Input, output)

	utils.RespondJSON(w, http.StatusOK, resp)
}

// persist writes the exchange to the transcript and the similarity index.
// Both writes are best effort.
func (h *Handler) persist(ctx context.Context, memberID int64, userText, botText string) {
	now := time.Now().UTC()
	var chatID int64

	if h.transcripts != nil {
		id, err := h.transcripts.Save(ctx, chatModel.Log{
			MemberID:  memberID,
			UserText:  userText,
			BotText:   botText,
			CreatedAt: now,
		})
		if err != nil {
			log.Printf("[chat] transcript save failed for member=%d: %v", memberID, err)
		} else {
			chatID = id
		}
	}

	if h.index == nil {
		return
	}
	for _, rec := range []memory.Record{
		{MemberID: memberID, Role: memory.RoleUser, Text: userText, ChatID: chatID, CreatedAt: now},
		{MemberID: memberID, Role: memory.RoleBot, Text: botText, ChatID: chatID, CreatedAt: now},
	} {
		if err := h.index.Add(ctx, rec); err != nil {
			log.Printf("[chat] memory index add failed for member=%d role=%s: %v", memberID, rec.Role, err)
		}
	}
}
