// Package tools exposes the agent-callable capabilities: emotion
// classification, hybrid recall search, and conversation summarization.
// Every tool output is bounded and failures come back as error-tagged
// strings, never as errors: a failed tool call must not abort a turn.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/jamjam-ai/jamjam/internal/model/outcome"
	"github.com/jamjam-ai/jamjam/internal/service/emotion"
)

// Tool names as the completion model sees them.
const (
	NameClassifyEmotion = "classify_emotion"
	NameRecallSearch    = "recall_search"
	NameSummarize       = "summarize"
)

// outputCap bounds every tool output so a single result cannot flood the
// next prompt.
const outputCap = 1500

// Defaults applied when the model omits optional arguments.
const (
	defaultTopK         = 3
	defaultSummaryLimit = 20
)

// Classifier is the emotion capability consumed by classify_emotion.
type Classifier interface {
	Classify(ctx context.Context, text string) emotion.Label
}

// Recaller is the hybrid retrieval capability consumed by recall_search.
type Recaller interface {
	RecallOrGeneral(ctx context.Context, input string, memberID int64, topK, windowMinutes int) outcome.Result
}

// Summarizer is the summarization capability consumed by summarize.
type Summarizer interface {
	Summarize(ctx context.Context, memberID int64, limit int) outcome.Result
}

// truncate caps s at limit bytes with a visible ellipsis, cutting on a rune
// boundary so Korean text never ends mid-character.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + " ..."
}

type classifyEmotionTool struct {
	classifier Classifier
}

// NewClassifyEmotion wraps the emotion capability as an invokable tool.
func NewClassifyEmotion(classifier Classifier) tool.InvokableTool {
	return &classifyEmotionTool{classifier: classifier}
}

func (t *classifyEmotionTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: NameClassifyEmotion,
		Desc: "문장을 여섯 가지 감정(분노/불안/슬픔/평온/당황/기쁨) 중 하나로 분류한다.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"text": {Type: schema.String, Desc: "감정을 분류할 문장", Required: true},
		}),
	}, nil
}

func (t *classifyEmotionTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "emotion_error=invalid arguments", nil
	}

	label := t.classifier.Classify(ctx, args.Text)
	return truncate(fmt.Sprintf("emotion=%s", label), outputCap), nil
}

type recallSearchTool struct {
	recaller      Recaller
	windowMinutes int
}

// NewRecallSearch wraps hybrid retrieval as an invokable tool.
func NewRecallSearch(recaller Recaller, windowMinutes int) tool.InvokableTool {
	return &recallSearchTool{recaller: recaller, windowMinutes: windowMinutes}
}

func (t *recallSearchTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: NameRecallSearch,
		Desc: "member_id 필터로 과거 대화에서 유사한 문맥을 검색한다.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query":     {Type: schema.String, Desc: "검색할 사용자 요청", Required: true},
			"member_id": {Type: schema.Integer, Desc: "대상 멤버 ID", Required: true},
			"top_k":     {Type: schema.Integer, Desc: "검색 결과 개수 (기본 3)", Required: false},
		}),
	}, nil
}

func (t *recallSearchTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		Query    string `json:"query"`
		MemberID int64  `json:"member_id"`
		TopK     int    `json:"top_k"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "recall_error=invalid arguments", nil
	}
	if args.TopK <= 0 {
		args.TopK = defaultTopK
	}

	res := t.recaller.RecallOrGeneral(ctx, args.Query, args.MemberID, args.TopK, t.windowMinutes)
	if res.Degraded() {
		return truncate(fmt.Sprintf("recall_error=%s", res.Err), outputCap), nil
	}

	snippet := truncate(res.Value, outputCap)
	return fmt.Sprintf("ctx_len=%d\n%s", utf8.RuneCountInString(res.Value), snippet), nil
}

type summarizeTool struct {
	summarizer Summarizer
}

// NewSummarize wraps the summarizer as an invokable tool. The underlying
// service opens and closes its own read-only transaction per call.
func NewSummarize(summarizer Summarizer) tool.InvokableTool {
	return &summarizeTool{summarizer: summarizer}
}

func (t *summarizeTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: NameSummarize,
		Desc: "최근 대화(limit개)를 요약한다.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"member_id": {Type: schema.Integer, Desc: "대상 멤버 ID", Required: true},
			"limit":     {Type: schema.Integer, Desc: "요약할 최근 대화 개수 (기본 20)", Required: false},
		}),
	}, nil
}

func (t *summarizeTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		MemberID int64 `json:"member_id"`
		Limit    int   `json:"limit"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "summary_error=invalid arguments", nil
	}
	if args.Limit <= 0 {
		args.Limit = defaultSummaryLimit
	}

	res := t.summarizer.Summarize(ctx, args.MemberID, args.Limit)
	if res.Degraded() {
		return truncate(fmt.Sprintf("summary_error=%s", res.Err), outputCap), nil
	}
	return truncate(res.Value, outputCap), nil
}

// Registry dispatches tool calls by name and publishes the tool schemas for
// model binding.
type Registry struct {
	order []string
	tools map[string]tool.InvokableTool
}

// NewRegistry indexes the given tools by their declared names.
func NewRegistry(ctx context.Context, ts ...tool.InvokableTool) (*Registry, error) {
	r := &Registry{tools: make(map[string]tool.InvokableTool, len(ts))}
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("read tool info: %w", err)
		}
		if _, dup := r.tools[info.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", info.Name)
		}
		r.tools[info.Name] = t
		r.order = append(r.order, info.Name)
	}
	return r, nil
}

// Infos returns the tool schemas in registration order, for BindTools.
func (r *Registry) Infos(ctx context.Context) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		info, err := r.tools[name].Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("read tool info for %s: %w", name, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Invoke runs one requested tool call. Unknown names and internal errors
// produce error-tagged strings so the turn always proceeds.
func (r *Registry) Invoke(ctx context.Context, name, argumentsInJSON string) string {
	t, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("unknown_tool=%s", name)
	}

	out, err := t.InvokableRun(ctx, argumentsInJSON)
	if err != nil {
		log.Printf("[tools] %s failed: %v", name, err)
		return truncate(fmt.Sprintf("tool_error=%v", err), outputCap)
	}
	return out
}
