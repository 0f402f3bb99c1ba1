package emotion

import (
	"context"
	"testing"
)

func TestClassifyWithoutModelUsesHeuristics(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{Enabled: true})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if svc.Enabled() {
		t.Fatal("service should not be enabled without a model")
	}
	if got := svc.Classify(context.Background(), "너무 신나!"); got != Joy {
		t.Fatalf("Classify = %s, want %s", got, Joy)
	}
}

func TestParseClassifierOutput(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    Label
		wantErr bool
	}{
		{"plain json", `{"emotion": "기쁨"}`, Joy, false},
		{"surrounding prose", "분류 결과입니다: {\"emotion\": \"슬픔\"} 감사합니다.", Sadness, false},
		{"padded label", `{"emotion": " 평온 "}`, Calm, false},
		{"outside closed set", `{"emotion": "사랑"}`, "", true},
		{"no json", "기쁨", "", true},
		{"broken json", `{"emotion": `, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseClassifierOutput(tc.content)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("label = %s, want %s", got, tc.want)
			}
		})
	}
}
