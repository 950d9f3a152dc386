// Package chunker splits document text into overlapping chunks that end at
// sentence boundaries where possible.
package chunker

import (
	"strings"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultMaxChars is the default maximum chunk length in characters.
const DefaultMaxChars = 1000

// DefaultOverlap is the default number of characters repeated between chunks.
const DefaultOverlap = 200

// Chunker splits document content into chunks.
type Chunker struct {
	maxChars int
	overlap  int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxChars sets the maximum chunk length in characters.
func WithMaxChars(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxChars: DefaultMaxChars,
		overlap:  DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.maxChars {
		c.overlap = c.maxChars / 4
	}

	return c
}

// MaxChars returns the configured maximum chunk length.
func (c *Chunker) MaxChars() int {
	return c.maxChars
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits a document's content into chunks owned by the document.
func (c *Chunker) Chunk(doc *domain.Document) []domain.Chunk {
	chunks := Split(doc.Content, c.maxChars, c.overlap)
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
	}
	return chunks
}

// Split normalises whitespace in text and cuts it into chunks of at most
// maxChars characters, preferring to cut just after the last ". " or
// newline found past the middle of each window. Consecutive chunks share
// overlap characters. Returns nil when text is blank.
//
// Lengths are counted in runes.
func Split(text string, maxChars, overlap int) []domain.Chunk {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 {
		overlap = 0
	}

	cleaned := strings.Join(strings.Fields(text), " ")
	if cleaned == "" {
		return nil
	}

	runes := []rune(cleaned)
	n := len(runes)
	if n <= maxChars {
		return []domain.Chunk{{Index: 0, Text: cleaned}}
	}

	chunks := make([]domain.Chunk, 0, n/(maxChars-min(overlap, maxChars-1))+1)
	start := 0
	index := 0

	for start < n {
		end := start + maxChars
		if end < n {
			// break point is relative to the window start
			if bp := lastBreak(runes, start, end); bp*2 > maxChars {
				end = start + bp + 1
			}
		} else {
			end = n
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, domain.Chunk{Index: index, Text: piece})
			index++
		}

		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			// cursor must strictly advance
			next = end
		}
		start = next
	}

	return chunks
}

// lastBreak returns the offset from start of the last sentence terminator
// followed by a space, or of the last newline, inside runes[start:end].
// Returns -1 when neither occurs.
func lastBreak(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == '\n' {
			return i - start
		}
		if runes[i] == '.' && i+1 < end && runes[i+1] == ' ' {
			return i - start
		}
	}
	return -1
}
