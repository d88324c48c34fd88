package chunking

import (
	"strings"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
)

const (
	wordsPerPage = 500
	wordsPerLine = 20
)

// Splitter cuts document text into overlapping windows of whole words.
// Page/line values are rough positional estimates for human review.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Chunk is pure and deterministic: repeated calls on the same text yield
// identical windows. Empty text yields no windows; text shorter than one
// window yields a single window covering all of it.
func (s *Splitter) Chunk(text string) []domain.ChunkWindow {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]domain.ChunkWindow, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + s.ChunkSize
		if end > len(words) {
			end = len(words)
		}

		out = append(out, domain.ChunkWindow{
			Text: strings.Join(words[start:end], " "),
			Page: start/wordsPerPage + 1,
			Line: (start%wordsPerPage)/wordsPerLine + 1,
		})

		if end == len(words) {
			break
		}
	}
	return out
}
