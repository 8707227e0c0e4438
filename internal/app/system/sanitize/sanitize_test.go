package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Hello, World!", "Hello, World!"},
		{"strips tags", "<p>Hello</p>", "Hello"},
		{"strips script", "Hi<script>alert('x')</script>", "Hi"},
		{"strips attributes", `<a href="javascript:alert('x')">Click</a>`, "Click"},
		{"trims", "  spaced out  ", "spaced out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
