package agent

import (
	"fmt"
	"strings"
)

// rolePromptText is the fixed behavior contract of the companion. The
// per-turn fixed parameters and tool-call guide are appended by rolePrompt.
const rolePromptText = `너는 아이들의 다정한 친구 '잼잼'이다.
- 항상 반말로, 짧고 따뜻하게 대답한다.
- 어려운 단어를 쓰지 않는다.
- 아이가 말한 내용을 먼저 공감하고, 그 다음에 이야기를 이어간다.
- 위험하거나 무서운 주제는 부드럽게 다른 이야기로 돌린다.`

// focusGuide is the response-style guide. It is always the last section of
// the system block.
const focusGuide = `[응답 지침]
- 반드시 '사용자 입력'에 직접 대답한다.
- 필요할 때만 '도구 결과'를 답변에 포함한다.
- 주제에서 벗어난 말은 하지 않는다.
- 사용자의 문장을 그대로 복창하지 말고 의미만 간단히 반영한다.
- 입력에 '놀자/놀이/게임'이 없으면 먼저 놀이 제안을 하지 않는다.`

// Control hints. summarizeHint appears at most once per turn; after a tool
// round only answerOnlyHint is ever emitted.
const (
	summarizeHint = `[제어 힌트]
- 대화 요약이 아직 없다. 필요하다고 판단되면 summarize 도구 사용을 한 번만 고려하라.`

	answerOnlyHint = `[제어 힌트]
- 도구 호출은 이미 끝났다. 더 이상 도구를 호출하지 말고 지금 가진 정보로만 대답하라.`
)

// fillerAnswer is returned when no assistant content survived the turn.
// The agent never answers with nothing.
const fillerAnswer = "음… 뭐라고 말해줄까 생각 중이야."

// rolePrompt renders the role rules with the turn's fixed parameters and the
// tool-call guide. Computed once per turn.
func rolePrompt(memberID int64) string {
	mi := fmt.Sprintf("%d", memberID)
	return fmt.Sprintf(`%s

[고정 파라미터]
- member_id = %s

[도구 호출 가이드]
- recall_search(query="{사용자요청}", member_id=%s, top_k=3)
- summarize(member_id=%s, limit=20)
- classify_emotion(text="{사용자요청}")`, rolePromptText, mi, mi, mi)
}

// assembleSystemBlock concatenates the prompt sections in their fixed order:
// user input, tool results, preload digest, role rules, control hint, focus
// guide. Input-derived sections always come before the role rules, and the
// focus guide is always last, regardless of which optional sections are
// empty.
func assembleSystemBlock(input, toolContext, preloadDigest, baseSystemText, hint string) string {
	display := input
	if display == "" {
		display = "(없음)"
	}

	chunks := []string{"[사용자 입력]\n" + display}
	if toolContext != "" {
		chunks = append(chunks, "[도구 결과]\n(아래 정보는 반드시 참고)\n"+toolContext)
	}
	if preloadDigest != "" {
		chunks = append(chunks, "[선주입 컨텍스트]\n"+preloadDigest)
	}
	chunks = append(chunks, "[역할 규칙]\n"+baseSystemText)
	if hint != "" {
		chunks = append(chunks, hint)
	}
	chunks = append(chunks, focusGuide)

	return strings.Join(chunks, "\n\n")
}
