package app

import "testing"

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips think block",
			in:   "<think>let me reason about this</think>\nThe answer is 4.",
			want: "The answer is 4.",
		},
		{
			name: "strips multiline think block",
			in:   "<think>\nstep one\nstep two\n</think>\n\nDone.",
			want: "Done.",
		},
		{
			name: "strips orphan tags",
			in:   "</think>leftover text",
			want: "leftover text",
		},
		{
			name: "collapses blank runs",
			in:   "first\n\n\n\nsecond",
			want: "first\n\nsecond",
		},
		{
			name: "plain text untouched",
			in:   "nothing to clean here",
			want: "nothing to clean here",
		},
		{
			name: "only think block leaves empty",
			in:   "<think>all reasoning, no answer</think>",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanResponse(tt.in); got != tt.want {
				t.Errorf("CleanResponse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
