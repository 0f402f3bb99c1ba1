package agent

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/jamjam-ai/jamjam/internal/config"
	"github.com/jamjam-ai/jamjam/internal/model/chat"
	"github.com/jamjam-ai/jamjam/internal/model/outcome"
	"github.com/jamjam-ai/jamjam/internal/service/tools"
	"github.com/jamjam-ai/jamjam/internal/session"
)

// step names the orchestrator transitions.
type step int

const (
	stepTools step = iota
	stepFinalize
)

// modelOutcome wraps a model reply so the branch after the agent step is a
// decision on a tagged value, not on a raw error.
type modelOutcome struct {
	reply *schema.Message
	err   error
}

func (m modelOutcome) wantsTools() bool {
	return m.err == nil && m.reply != nil && len(m.reply.ToolCalls) > 0
}

// Orchestrator drives a single chat turn through its fixed stages: preload,
// agent call, at most one tool round, finalize. Every stage degrades instead
// of failing, so RunTurn always produces an answer.
type Orchestrator struct {
	llm        model.BaseChatModel
	registry   *tools.Registry
	recaller   tools.Recaller
	summarizer tools.Summarizer
	classifier tools.Classifier
	sessions   *session.Store
	cfg        config.AgentConfig
}

// New wires an orchestrator. llm must already have the registry's tool infos
// bound.
func New(
	llm model.BaseChatModel,
	registry *tools.Registry,
	recaller tools.Recaller,
	summarizer tools.Summarizer,
	classifier tools.Classifier,
	sessions *session.Store,
	cfg config.AgentConfig,
) *Orchestrator {
	return &Orchestrator{
		llm:        llm,
		registry:   registry,
		recaller:   recaller,
		summarizer: summarizer,
		classifier: classifier,
		sessions:   sessions,
		cfg:        cfg,
	}
}

// RunTurn executes one full turn and returns the final answer. Turns on the
// same session are serialized; the session history is extended with the user
// input and the answer only after the turn completes.
func (o *Orchestrator) RunTurn(ctx context.Context, turn chat.Turn) (string, error) {
	if strings.TrimSpace(turn.Input) == "" {
		return "", fmt.Errorf("empty input")
	}

	sid := turn.SessionID
	if sid == "" {
		sid = strconv.FormatInt(turn.MemberID, 10)
	}
	sid = o.sessions.Ensure(sid)

	unlock := o.sessions.LockTurn(sid)
	defer unlock()

	history := o.sessions.History(sid)

	st := &State{}
	st.Apply(o.preload(ctx, turn))

	for {
		delta, next := o.agentStep(ctx, turn, history, st)
		st.Apply(delta)
		if next != stepTools {
			break
		}
		st.Apply(o.executeTools(ctx, st))
		st.Apply(o.toolsToPrompt(st))
	}

	st.Apply(o.finalize(st))

	o.sessions.Append(sid,
		chat.Message{Role: chat.RoleUser, Content: turn.Input},
		chat.Message{Role: chat.RoleAssistant, Content: st.Response},
	)

	return st.Response, nil
}

// preload runs the summary, recall and emotion branches concurrently and
// folds their results into the role prompt and the preload digest. A failed
// branch is logged and skipped. When turn.DisablePreload is set the stage is
// skipped entirely.
func (o *Orchestrator) preload(ctx context.Context, turn chat.Turn) Delta {
	if turn.DisablePreload {
		return Delta{
			BaseSystemText: strPtr(rolePrompt(turn.MemberID)),
			PreloadSummary: strPtr(""),
			PreloadContext: strPtr(""),
			ToolContext:    strPtr(""),
			ToolPassDone:   boolPtr(false),
			ResetExecuted:  true,
		}
	}

	preCtx := ctx
	if o.cfg.PreloadTimeout > 0 {
		var cancel context.CancelFunc
		preCtx, cancel = context.WithTimeout(ctx, o.cfg.PreloadTimeout)
		defer cancel()
	}

	sumCh := make(chan outcome.Result, 1)
	recallCh := make(chan outcome.Result, 1)
	emoCh := make(chan outcome.Result, 1)

	go func() {
		sumCh <- o.summarizer.Summarize(preCtx, turn.MemberID, o.cfg.SummaryLimit)
	}()
	go func() {
		recallCh <- o.recaller.RecallOrGeneral(preCtx, turn.Input, turn.MemberID, o.cfg.RecallTopK, o.cfg.RecallWindowMin)
	}()
	go func() {
		emoCh <- outcome.Ok(string(o.classifier.Classify(preCtx, turn.Input)))
	}()

	collect := func(name string, ch <-chan outcome.Result) outcome.Result {
		select {
		case r := <-ch:
			if r.Degraded() {
				log.Printf("[agent] preload %s degraded: %s", name, r.Err)
			}
			return r
		case <-preCtx.Done():
			log.Printf("[agent] preload %s timed out: %v", name, preCtx.Err())
			return outcome.Degrade("preload timeout: " + preCtx.Err().Error())
		}
	}

	summary := collect("summary", sumCh)
	recall := collect("recall", recallCh)
	emo := collect("emotion", emoCh)

	base := rolePrompt(turn.MemberID)
	var facts []string
	if summary.Value != "" {
		facts = append(facts, "- 최근 대화 요약: "+summary.Value)
	}
	if recall.Value != "" {
		facts = append(facts, "- 관련 기억:\n"+recall.Value)
	}
	if emo.Value != "" {
		facts = append(facts, "- 사용자 감정: "+emo.Value)
	}
	if len(facts) > 0 {
		base += "\n\n[미리 파악한 정보]\n" + strings.Join(facts, "\n")
	}

	return Delta{
		BaseSystemText: strPtr(base),
		PreloadSummary: strPtr(summary.Value),
		PreloadContext: strPtr(preloadDigest(summary, recall, emo)),
		ToolContext:    strPtr(""),
		ToolPassDone:   boolPtr(false),
		ResetExecuted:  true,
	}
}

const (
	digestSummaryCap = 300
	digestRecallCap  = 800
)

func preloadDigest(summary, recall, emo outcome.Result) string {
	var parts []string
	if summary.Value != "" {
		parts = append(parts, "요약: "+clip(summary.Value, digestSummaryCap))
	}
	if recall.Value != "" {
		parts = append(parts, "회상:\n"+clip(recall.Value, digestRecallCap))
	}
	if emo.Value != "" {
		parts = append(parts, "감정: "+emo.Value)
	}
	return strings.Join(parts, "\n")
}

// clip cuts s to at most limit bytes without splitting a rune.
func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// agentStep assembles the system block, calls the model with the session
// history plus the current input, and decides whether a tool round follows.
// A model failure degrades to finalize with whatever the turn has so far.
func (o *Orchestrator) agentStep(ctx context.Context, turn chat.Turn, history []chat.Message, st *State) (Delta, step) {
	var delta Delta

	base := st.BaseSystemText
	if base == "" {
		base = rolePrompt(turn.MemberID)
		delta.BaseSystemText = strPtr(base)
	}

	sys := assembleSystemBlock(turn.Input, st.ToolContext, st.PreloadContext, base, o.controlHint(turn, history, st))

	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(sys))
	for _, m := range history {
		switch m.Role {
		case chat.RoleUser:
			msgs = append(msgs, schema.UserMessage(m.Content))
		case chat.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		}
	}
	msgs = append(msgs, schema.UserMessage(turn.Input))

	start := time.Now()
	reply, err := o.llm.Generate(ctx, msgs)
	out := modelOutcome{reply: reply, err: err}
	if err != nil {
		log.Printf("[agent] model call failed after %v: %v", time.Since(start), err)
		reply = schema.AssistantMessage("", nil)
	}

	delta.AppendMessages = []*schema.Message{
		schema.SystemMessage(sys),
		schema.UserMessage(turn.Input),
		reply,
	}

	if out.wantsTools() && !st.ToolPassDone {
		return delta, stepTools
	}
	return delta, stepFinalize
}

// controlHint picks the per-call steering hint. After the tool round the
// model is told to answer with what it has; before it, a missing summary on
// an ongoing conversation nudges toward the summarize tool.
func (o *Orchestrator) controlHint(turn chat.Turn, history []chat.Message, st *State) string {
	if st.ToolPassDone {
		return answerOnlyHint
	}
	if st.PreloadSummary == "" && (turn.ForceSummary || hasAssistant(history)) {
		return summarizeHint
	}
	return ""
}

func hasAssistant(history []chat.Message) bool {
	for _, m := range history {
		if m.Role == chat.RoleAssistant {
			return true
		}
	}
	return false
}

// executeTools runs the tool calls requested by the last model reply.
// Duplicate call IDs are invoked once. Registry.Invoke never fails, so every
// requested call yields a tool message.
func (o *Orchestrator) executeTools(ctx context.Context, st *State) Delta {
	calls := lastToolCalls(st.Messages)

	seen := make(map[string]bool, len(calls))
	results := make([]*schema.Message, 0, len(calls))
	for _, tc := range calls {
		if tc.ID != "" && seen[tc.ID] {
			continue
		}
		seen[tc.ID] = true

		name := tc.Function.Name
		out := o.registry.Invoke(ctx, name, tc.Function.Arguments)
		log.Printf("[agent] tool %s -> %d bytes", name, len(out))
		results = append(results, schema.ToolMessage(out, tc.ID, schema.WithToolName(name)))
	}

	return Delta{AppendMessages: results}
}

func lastToolCalls(msgs []*schema.Message) []schema.ToolCall {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == schema.Assistant {
			return msgs[i].ToolCalls
		}
	}
	return nil
}

// toolsToPrompt folds the tool results of the just-finished round into the
// tool context and closes the tool pass. The next agent step sees the
// results as prompt text, not as protocol messages.
func (o *Orchestrator) toolsToPrompt(st *State) Delta {
	toolMsgs := recentToolMessages(st.Messages)

	names := make([]string, 0, len(toolMsgs))
	lines := make([]string, 0, len(toolMsgs))
	for _, m := range toolMsgs {
		name := m.ToolName
		if name == "" {
			name = "tool"
		}
		names = append(names, name)
		lines = append(lines, fmt.Sprintf("- %s: %s", name, clip(m.Content, o.previewLimit())))
	}

	toolCtx := st.ToolContext
	if len(lines) > 0 {
		if toolCtx != "" {
			toolCtx += "\n"
		}
		toolCtx += strings.Join(lines, "\n")
	}

	return Delta{
		ToolContext:   strPtr(toolCtx),
		ToolPassDone:  boolPtr(true),
		ExecutedTools: names,
	}
}

func (o *Orchestrator) previewLimit() int {
	if o.cfg.ToolPreviewLimit > 0 {
		return o.cfg.ToolPreviewLimit
	}
	return 800
}

// recentToolMessages returns the tool messages that follow the last
// assistant message.
func recentToolMessages(msgs []*schema.Message) []*schema.Message {
	last := -1
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == schema.Assistant {
			last = i
			break
		}
	}
	if last < 0 {
		return nil
	}

	var out []*schema.Message
	for _, m := range msgs[last+1:] {
		if m.Role == schema.Tool {
			out = append(out, m)
		}
	}
	return out
}

// finalize picks the newest non-empty assistant content as the answer, or
// the filler when nothing usable came back.
func (o *Orchestrator) finalize(st *State) Delta {
	resp := ""
	for i := len(st.Messages) - 1; i >= 0; i-- {
		m := st.Messages[i]
		if m.Role == schema.Assistant && strings.TrimSpace(m.Content) != "" {
			resp = strings.TrimSpace(m.Content)
			break
		}
	}
	if resp == "" {
		resp = fillerAnswer
	}
	return Delta{Response: strPtr(resp)}
}
