package utils

import (
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding space", "  \n```json{\"a\":1}```  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFence(tc.in); got != tc.want {
				t.Fatalf("StripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecodeReply(t *testing.T) {
	var out struct {
		IsOK bool `json:"isOk"`
	}
	if err := DecodeReply("```json\n{\"isOk\": true}\n```", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsOK {
		t.Fatalf("expected isOk true")
	}

	if err := DecodeReply("判定できません", &out); err == nil {
		t.Fatalf("expected error for non-json reply")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("あいうえお", 3); got != "あいう..." {
		t.Fatalf("unexpected truncate result: %s", got)
	}
	if got := Truncate("abc", 5); got != "abc" {
		t.Fatalf("unexpected truncate result: %s", got)
	}
}
