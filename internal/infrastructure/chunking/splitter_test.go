package chunking

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func wordsText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestChunkEmptyTextYieldsNoWindows(t *testing.T) {
	s := NewSplitter(1000, 200)
	if got := s.Chunk(""); got != nil {
		t.Fatalf("expected no windows, got %d", len(got))
	}
	if got := s.Chunk("   \n\t  "); got != nil {
		t.Fatalf("expected no windows for whitespace text, got %d", len(got))
	}
}

func TestChunkShortTextYieldsSingleWindow(t *testing.T) {
	s := NewSplitter(1000, 200)
	windows := s.Chunk(wordsText(42))
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if windows[0].Text != wordsText(42) {
		t.Fatalf("window should cover the whole text")
	}
	if windows[0].Page != 1 || windows[0].Line != 1 {
		t.Fatalf("expected page=1 line=1, got page=%d line=%d", windows[0].Page, windows[0].Line)
	}
}

func TestChunk1500WordsProducesTwoOverlappingWindows(t *testing.T) {
	s := NewSplitter(1000, 200)
	words := strings.Fields(wordsText(1500))

	windows := s.Chunk(wordsText(1500))
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if windows[0].Text != strings.Join(words[0:1000], " ") {
		t.Fatalf("first window must span words [0,1000)")
	}
	if windows[1].Text != strings.Join(words[800:1500], " ") {
		t.Fatalf("second window must span words [800,1500)")
	}
	if windows[1].Page != 800/500+1 {
		t.Fatalf("expected second window page %d, got %d", 800/500+1, windows[1].Page)
	}
	if windows[1].Line != (800%500)/20+1 {
		t.Fatalf("expected second window line %d, got %d", (800%500)/20+1, windows[1].Line)
	}
}

func TestChunkConservesWordSequence(t *testing.T) {
	s := NewSplitter(1000, 200)
	original := strings.Fields(wordsText(3777))

	var rebuilt []string
	for i, w := range s.Chunk(wordsText(3777)) {
		words := strings.Fields(w.Text)
		if i > 0 {
			// The first Overlap words were already emitted by the
			// previous window.
			words = words[s.Overlap:]
		}
		rebuilt = append(rebuilt, words...)
	}
	if !reflect.DeepEqual(original, rebuilt) {
		t.Fatalf("word sequence not conserved: %d original vs %d rebuilt", len(original), len(rebuilt))
	}
}

func TestChunkIsDeterministic(t *testing.T) {
	s := NewSplitter(1000, 200)
	text := wordsText(2600)
	if !reflect.DeepEqual(s.Chunk(text), s.Chunk(text)) {
		t.Fatalf("repeated calls must produce identical windows")
	}
}

func TestChunkPagesAreMonotonicallyNonDecreasing(t *testing.T) {
	s := NewSplitter(1000, 200)
	windows := s.Chunk(wordsText(5200))
	for i := 1; i < len(windows); i++ {
		if windows[i].Page < windows[i-1].Page {
			t.Fatalf("page estimate decreased at window %d: %d -> %d", i, windows[i-1].Page, windows[i].Page)
		}
	}
}

func TestNewSplitterNormalizesDegenerateSettings(t *testing.T) {
	s := NewSplitter(0, -5)
	if s.ChunkSize != 1000 || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: size=%d overlap=%d", s.ChunkSize, s.Overlap)
	}
	s = NewSplitter(100, 150)
	if s.Overlap >= s.ChunkSize {
		t.Fatalf("overlap must be normalized below chunk size, got %d/%d", s.Overlap, s.ChunkSize)
	}
}
