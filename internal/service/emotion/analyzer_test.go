package emotion

import "testing"

func TestAnalyze(t *testing.T) {
	cases := []struct {
		input string
		want  Label
	}{
		{"정말 화나고 짜증나!", Anger},
		{"무서워서 떨려", Anxiety},
		{"너무 슬퍼서 눈물이 나", Sadness},
		{"깜짝 놀랐어, 어떡해", Surprise},
		{"오늘 진짜 재밌고 신나!", Joy},
		{"오늘 점심 뭐 먹었어", Calm},
		{"", Calm},
		{"   ", Calm},
	}
	for _, tc := range cases {
		if got := Analyze(tc.input); got != tc.want {
			t.Errorf("Analyze(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	input := "무섭고 슬퍼"
	first := Analyze(input)
	for i := 0; i < 10; i++ {
		if got := Analyze(input); got != first {
			t.Fatalf("Analyze unstable: %s then %s", first, got)
		}
	}
}

func TestValid(t *testing.T) {
	for _, l := range Labels {
		if got, ok := Valid(string(l)); !ok || got != l {
			t.Errorf("Valid(%q) = %q, %v", l, got, ok)
		}
	}
	if _, ok := Valid("행복"); ok {
		t.Error("Valid accepted a label outside the closed set")
	}
	if got, ok := Valid("  평온  "); !ok || got != Calm {
		t.Errorf("Valid should trim whitespace, got %q, %v", got, ok)
	}
}
