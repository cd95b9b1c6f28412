package helpers

import (
	"errors"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "Here you go:\n```json\n{\"a\":1}\n```\nthanks", `{"a":1}`},
		{"bare fence", "```\n{\"b\":2}\n```", `{"b":2}`},
		{"json preferred over earlier bare", "```\nx\n```\n```json\n{}\n```", `{}`},
		{"no fence", "  {\"c\":3}  ", `{"c":3}`},
		{"unterminated", "```json\n{\"d\":4}", `{"d":4}`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := StripCodeFence(tc.in); got != tc.want {
				t.Fatalf("StripCodeFence() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()
	got, err := ExtractJSONObject("Sure! {\"point\": \"uses } in text\", \"n\": {\"x\": 1}} trailing")
	if err != nil {
		t.Fatalf("ExtractJSONObject: %v", err)
	}
	if got != `{"point": "uses } in text", "n": {"x": 1}}` {
		t.Fatalf("unexpected object %q", got)
	}

	if _, err := ExtractJSONObject("[1, 2, 3]"); !errors.Is(err, ErrNoJSONObject) {
		t.Fatalf("expected ErrNoJSONObject for array, got %v", err)
	}
	if _, err := ExtractJSONObject("not json at all"); !errors.Is(err, ErrNoJSONObject) {
		t.Fatalf("expected ErrNoJSONObject, got %v", err)
	}
}
