package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	chatModel "github.com/jamjam-ai/jamjam/internal/model/chat"
	"github.com/jamjam-ai/jamjam/internal/model/memory"
	"github.com/jamjam-ai/jamjam/internal/service/emotion"
)

type stubRunner struct {
	output  string
	err     error
	gotTurn chatModel.Turn
}

func (s *stubRunner) RunTurn(_ context.Context, turn chatModel.Turn) (string, error) {
	s.gotTurn = turn
	return s.output, s.err
}

type stubSaver struct {
	err  error
	saved []chatModel.Log
}

func (s *stubSaver) Save(_ context.Context, record chatModel.Log) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.saved = append(s.saved, record)
	return int64(len(s.saved)), nil
}

type stubIndexer struct {
	err   error
	added []memory.Record
}

func (s *stubIndexer) Add(_ context.Context, record memory.Record) error {
	if s.err != nil {
		return s.err
	}
	s.added = append(s.added, record)
	return nil
}

type stubClassifier struct {
	label emotion.Label
}

func (s stubClassifier) Classify(context.Context, string) emotion.Label { return s.label }

func serve(h *Handler, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleTurnSuccess(t *testing.T) {
	runner := &stubRunner{output: "오늘은 해가 쨍쨍해!"}
	saver := &stubSaver{}
	indexer := &stubIndexer{}
	h := New(runner, saver, indexer, stubClassifier{label: emotion.Joy})

	rec := serve(h, `{"input":"오늘 날씨 어때","member_id":7,"session_id":"s1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Output != "오늘은 해가 쨍쨍해!" {
		t.Fatalf("output = %q", resp.Output)
	}
	if resp.UserEmotion != string(emotion.Joy) {
		t.Fatalf("user_emotion = %q", resp.UserEmotion)
	}

	if runner.gotTurn.MemberID != 7 || runner.gotTurn.SessionID != "s1" {
		t.Fatalf("turn = %+v", runner.gotTurn)
	}

	if len(saver.saved) != 1 {
		t.Fatalf("saved %d transcript rows, want 1", len(saver.saved))
	}
	row := saver.saved[0]
	if row.MemberID != 7 || row.UserText != "오늘 날씨 어때" || row.BotText != resp.Output {
		t.Fatalf("saved row = %+v", row)
	}

	if len(indexer.added) != 2 {
		t.Fatalf("indexed %d records, want 2", len(indexer.added))
	}
	if indexer.added[0].Role != memory.RoleUser || indexer.added[1].Role != memory.RoleBot {
		t.Fatalf("indexed roles = %s, %s", indexer.added[0].Role, indexer.added[1].Role)
	}
	if indexer.added[0].ChatID != 1 {
		t.Fatalf("indexed chat id = %d, want 1", indexer.added[0].ChatID)
	}
}

func TestHandleTurnValidation(t *testing.T) {
	h := New(&stubRunner{output: "ok"}, nil, nil, nil)

	cases := []struct {
		name string
		body string
	}{
		{"broken json", `{`},
		{"missing input", `{"member_id":7}`},
		{"blank input", `{"input":"   ","member_id":7}`},
		{"missing member", `{"input":"안녕"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := serve(h, tc.body); rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleTurnNoRunner(t *testing.T) {
	h := New(nil, nil, nil, nil)
	if rec := serve(h, `{"input":"안녕","member_id":1}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleTurnRunnerError(t *testing.T) {
	h := New(&stubRunner{err: errors.New("model down")}, nil, nil, nil)
	if rec := serve(h, `{"input":"안녕","member_id":1}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHandleTurnPersistenceBestEffort(t *testing.T) {
	saver := &stubSaver{err: errors.New("db down")}
	indexer := &stubIndexer{err: errors.New("index down")}
	h := New(&stubRunner{output: "괜찮아!"}, saver, indexer, nil)

	rec := serve(h, `{"input":"안녕","member_id":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, persistence failures must not fail the turn", rec.Code)
	}

	var resp turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserEmotion != "" {
		t.Fatalf("user_emotion = %q, want empty without classifier", resp.UserEmotion)
	}
}
