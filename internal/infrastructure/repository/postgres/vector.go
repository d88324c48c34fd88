package postgres

import (
	"strconv"
	"strings"
)

// FormatVector renders the pgvector literal: bracketed, comma-separated,
// no spaces, e.g. [0.101,-0.002,0.33].
func FormatVector(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
