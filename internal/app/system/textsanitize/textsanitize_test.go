package textsanitize_test

import (
	"testing"

	"github.com/dalemusser/quicklist/internal/app/system/textsanitize"
)

func TestPlain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "Milk", "Milk"},
		{"trims", "  Eggs  ", "Eggs"},
		{"strips tags", "<b>Bread</b>", "Bread"},
		{"drops script", "Jam<script>alert('x')</script>", "Jam"},
		{"keeps ampersand", "Salt & Pepper", "Salt & Pepper"},
		{"keeps quotes", `Joe's "best"`, `Joe's "best"`},
		{"keeps emoji", "🛒 Groceries", "🛒 Groceries"},
		{"only markup", "<img src=x onerror=alert(1)>", ""},
		{"spaced less-than", "2 < 3", "2 < 3"},
		{"heart", "I <3 milk", "I <3 milk"},
		{"greater-than", "qty > 2", "qty > 2"},
		{"tag-shaped text is removed", "a<b and c>d", "ad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textsanitize.Plain(tt.in); got != tt.want {
				t.Errorf("Plain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
