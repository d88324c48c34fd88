package postgres

import "testing"

func TestFormatVector(t *testing.T) {
	cases := []struct {
		name   string
		vector []float32
		want   string
	}{
		{"empty", nil, "[]"},
		{"single", []float32{0.5}, "[0.5]"},
		{"mixed signs", []float32{0.101, -0.002, 0.33}, "[0.101,-0.002,0.33]"},
		{"integers", []float32{1, 2, 3}, "[1,2,3]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatVector(tc.vector); got != tc.want {
				t.Fatalf("FormatVector(%v) = %q, want %q", tc.vector, got, tc.want)
			}
		})
	}
}
