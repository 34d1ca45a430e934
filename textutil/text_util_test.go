package textutil

import "testing"

func TestSmartTrim(t *testing.T) {
	tt := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses_spaces",
			in:   "hello   world",
			want: "hello world",
		},
		{
			name: "collapses_linebreaks",
			in:   "hello\n\n\n\nworld",
			want: "hello\n\nworld",
		},
		{
			name: "trims_edges",
			in:   "  hello world \n",
			want: "hello world",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := SmartTrim(tc.in); got != tc.want {
				t.Errorf("SmartTrim(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tt := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{
			name: "short_string_untouched",
			in:   "hello",
			max:  10,
			want: "hello",
		},
		{
			name: "exact_length_untouched",
			in:   "hello",
			max:  5,
			want: "hello",
		},
		{
			name: "long_string_cut",
			in:   "hello world",
			max:  5,
			want: "hello…",
		},
		{
			name: "multibyte_runes",
			in:   "héllö wörld",
			max:  5,
			want: "héllö…",
		},
		{
			name: "trailing_space_trimmed_before_ellipsis",
			in:   "hello world",
			max:  6,
			want: "hello…",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := Truncate(tc.in, tc.max); got != tc.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}
