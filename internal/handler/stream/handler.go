package stream

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	chatModel "github.com/jamjam-ai/jamjam/internal/model/chat"
	"github.com/jamjam-ai/jamjam/internal/service/emotion"
	"github.com/jamjam-ai/jamjam/pkg/utils"
)

// TurnRunner executes one chat turn and returns the answer.
type TurnRunner interface {
	RunTurn(ctx context.Context, turn chatModel.Turn) (string, error)
}

// Classifier labels the user's utterance for the emotion event.
type Classifier interface {
	Classify(ctx context.Context, text string) emotion.Label
}

// Handler serves chat turns over Server-Sent Events. One request is one
// turn: start, message, emotion, end.
type Handler struct {
	runner     TurnRunner
	classifier Classifier
}

// New creates the stream handler.
func New(runner TurnRunner, classifier Classifier) *Handler {
	return &Handler{runner: runner, classifier: classifier}
}

// HandleStreamRequest runs the turn for sessionID and writes the event
// sequence to w.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, sessionID, message string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return nil
	}

	memberID, err := strconv.ParseInt(r.URL.Query().Get("member_id"), 10, 64)
	if err != nil || memberID == 0 {
		utils.RespondError(w, http.StatusBadRequest, "member_id query parameter is required")
		return nil
	}

	utils.SetupSSEHeaders(w)

	utils.SendSSEEvent(w, flusher, "start", map[string]any{
		"session_id": sessionID,
		"time":       time.Now().UTC().Format(time.RFC3339),
	})

	turn := chatModel.Turn{
		Input:     message,
		MemberID:  memberID,
		SessionID: sessionID,
	}

	output, err := h.runner.RunTurn(ctx, turn)
	if err != nil {
		log.Printf("[stream] turn failed for session=%s: %v", sessionID, err)
		utils.SendSSEEvent(w, flusher, "error", map[string]any{
			"message": "turn failed",
		})
		return err
	}

	utils.SendSSEEvent(w, flusher, "message", map[string]any{
		"content": output,
	})

	if h.classifier != nil {
		utils.SendSSEEvent(w, flusher, "emotion", map[string]any{
			"user_emotion": string(h.classifier.Classify(ctx, message)),
		})
	}

	utils.SendSSEEvent(w, flusher, "end", map[string]any{
		"session_id": sessionID,
	})
	return nil
}
