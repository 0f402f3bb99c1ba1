package emotion

import "strings"

// Label is one of the six emotions the classifier can return.
type Label string

const (
	Anger    Label = "분노"
	Anxiety  Label = "불안"
	Sadness  Label = "슬픔"
	Calm     Label = "평온"
	Surprise Label = "당황"
	Joy      Label = "기쁨"
)

// Labels is the closed label set, in model-output order.
var Labels = []Label{Anger, Anxiety, Sadness, Calm, Surprise, Joy}

// Valid reports whether raw is a member of the closed label set.
func Valid(raw string) (Label, bool) {
	candidate := Label(strings.TrimSpace(raw))
	for _, l := range Labels {
		if l == candidate {
			return l, true
		}
	}
	return "", false
}

var keywordBuckets = map[Label][]string{
	Anger: {
		"화나", "화났", "짜증", "열받", "싫어", "미워", "그만해", "억울",
	},
	Anxiety: {
		"무서", "무섭", "걱정", "불안", "떨려", "겁나", "긴장",
	},
	Sadness: {
		"슬퍼", "슬프", "눈물", "울었", "울고", "속상", "외로", "보고 싶",
	},
	Surprise: {
		"깜짝", "놀랐", "놀랬", "당황", "어떡해", "헉", "어머",
	},
	Joy: {
		"좋아", "신나", "신났", "재밌", "재미있", "행복", "즐거", "기뻐", "최고",
	},
}

// Analyze classifies text with keyword heuristics. It is deterministic and
// total: unknown input yields Calm.
func Analyze(text string) Label {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Calm
	}

	best := Calm
	bestScore := 0
	for _, label := range Labels {
		score := 0
		for _, kw := range keywordBuckets[label] {
			score += strings.Count(trimmed, kw)
		}
		if score > bestScore {
			best = label
			bestScore = score
		}
	}
	return best
}
