package textproc

import (
	"fmt"
	"strings"
)

const (
	// DefaultMaxChunkSize is the soft upper bound on chunk length in characters.
	DefaultMaxChunkSize = 800
	// DefaultChunkOverlap is the tail of each chunk repeated at the start of the next.
	DefaultChunkOverlap = 200

	paragraphSeparator = "\n\n"
)

// Chunker splits normalized text into overlapping, size-bounded chunks.
// The bound is soft: a single paragraph longer than maxSize is never split
// mid-paragraph and is emitted whole.
type Chunker struct {
	maxSize int
	overlap int
}

// NewChunker validates the configuration eagerly and fails construction on
// a non-positive max size or a negative overlap.
func NewChunker(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunker: max size must be positive, got %d", maxSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunker: overlap must not be negative, got %d", overlap)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

// DefaultChunker returns a chunker with the default 800/200 configuration.
func DefaultChunker() *Chunker {
	return &Chunker{maxSize: DefaultMaxChunkSize, overlap: DefaultChunkOverlap}
}

// Split normalizes text, splits it into paragraphs on double newlines and
// greedily accumulates paragraphs into chunks joined by double newlines.
// When appending the next paragraph would push the buffer past maxSize, the
// buffer is emitted and the next one is seeded with the last overlap
// characters of the previous buffer. The overlap is a raw character slice of
// the full previous buffer, so it may begin mid-word. Empty input yields an
// empty slice.
func (ck *Chunker) Split(text string) []string {
	text = NormalizeText(text)

	var paragraphs []string
	for _, p := range strings.Split(text, paragraphSeparator) {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []string
	current := ""

	for _, para := range paragraphs {
		if len(current)+len(para)+len(paragraphSeparator) > ck.maxSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))

			if ck.overlap > 0 && len(current) > ck.overlap {
				current = current[len(current)-ck.overlap:]
			} else {
				current = ""
			}
		}

		if current != "" {
			current += paragraphSeparator + para
		} else {
			current = para
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}
