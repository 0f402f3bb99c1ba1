package agent

import "github.com/cloudwego/eino/schema"

// State is the working log of a single turn. It is created fresh per turn
// and mutated only through Delta, so every transition declares exactly
// which fields it touches.
type State struct {
	// Messages is the turn-local model log: system and user prompts, model
	// replies and tool results, in call order.
	Messages []*schema.Message

	// BaseSystemText is the rendered role prompt, computed once per turn.
	BaseSystemText string

	// PreloadSummary holds the pre-turn conversation summary. When it is
	// empty the agent may be hinted to call the summarize tool.
	PreloadSummary string

	// PreloadContext is the compact digest of the preload branches that is
	// injected into the system block.
	PreloadContext string

	// ToolContext accumulates rendered tool outputs across the turn.
	ToolContext string

	// ToolPassDone flips to true after the first tool round. Once set, tool
	// call requests from the model are ignored and the turn finalizes.
	ToolPassDone bool

	// ExecutedTools records the tool names invoked this turn.
	ExecutedTools []string

	// Response is the finalized answer.
	Response string
}

// Delta is a partial state update. Nil pointer fields leave the current
// value untouched; AppendMessages and ExecutedTools append.
type Delta struct {
	AppendMessages []*schema.Message
	BaseSystemText *string
	PreloadSummary *string
	PreloadContext *string
	ToolContext    *string
	ToolPassDone   *bool
	Response       *string

	// ResetExecuted clears ExecutedTools before ExecutedTools is appended.
	ResetExecuted bool
	ExecutedTools []string
}

// Apply merges d into s.
func (s *State) Apply(d Delta) {
	s.Messages = append(s.Messages, d.AppendMessages...)
	if d.BaseSystemText != nil {
		s.BaseSystemText = *d.BaseSystemText
	}
	if d.PreloadSummary != nil {
		s.PreloadSummary = *d.PreloadSummary
	}
	if d.PreloadContext != nil {
		s.PreloadContext = *d.PreloadContext
	}
	if d.ToolContext != nil {
		s.ToolContext = *d.ToolContext
	}
	if d.ToolPassDone != nil {
		s.ToolPassDone = *d.ToolPassDone
	}
	if d.Response != nil {
		s.Response = *d.Response
	}
	if d.ResetExecuted {
		s.ExecutedTools = nil
	}
	s.ExecutedTools = append(s.ExecutedTools, d.ExecutedTools...)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
