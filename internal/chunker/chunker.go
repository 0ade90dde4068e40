package chunker

import (
	"fmt"
	"strings"

	"docchat/internal/models"
)

// Chunker splits extracted document text into overlapping chunks. Sizes are
// measured in runes. A single Chunker serves one session: chunk ids are a
// monotonic counter that survives across Chunk calls and is never reused.
type Chunker struct {
	targetSize int
	overlap    int
	nextID     int
}

// New validates the chunking parameters. Overlap must be strictly less than
// the target size or every window would revisit the previous one forever.
func New(targetSize, overlap int) (*Chunker, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("%w: chunk target size must be positive, got %d", models.ErrConfig, targetSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", models.ErrConfig, overlap)
	}
	if overlap >= targetSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be less than target size %d", models.ErrConfig, overlap, targetSize)
	}
	return &Chunker{targetSize: targetSize, overlap: overlap}, nil
}

// Chunk splits text into chunks of at most targetSize runes. Every chunk
// after the first starts exactly overlap runes before the previous chunk's
// end, so adjacent chunks always share that much text. Within a window the
// cut lands on the latest paragraph or sentence boundary when one exists;
// otherwise the window is cut at full width.
//
// Empty or whitespace-only input yields no chunks and no error: downstream
// treats an empty index as "no context available", not as a fault.
func (c *Chunker) Chunk(text string) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	sections := scanSections(runes)

	var chunks []models.Chunk
	start := 0
	for start < len(runes) {
		end := c.cutPoint(runes, start)
		chunks = append(chunks, models.Chunk{
			ID:          c.nextID,
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
			Section:     sections.labelAt(start),
		})
		c.nextID++
		if end == len(runes) {
			break
		}
		start = end - c.overlap
	}
	return chunks
}

// cutPoint picks where the chunk starting at start should end. The cut must
// stay past start+overlap so the next chunk makes forward progress.
func (c *Chunker) cutPoint(runes []rune, start int) int {
	limit := start + c.targetSize
	if limit >= len(runes) {
		return len(runes)
	}

	floor := start + c.overlap + 1
	sentence := 0
	for i := limit; i >= floor; i-- {
		if isParagraphBreak(runes, i) {
			return i
		}
		if sentence == 0 && isSentenceBreak(runes, i) {
			sentence = i
		}
	}
	if sentence > 0 {
		return sentence
	}
	// No usable boundary in the window: fixed-width fallback.
	return limit
}

// isParagraphBreak reports whether cutting before runes[i] leaves a blank
// line at the end of the chunk.
func isParagraphBreak(runes []rune, i int) bool {
	return i >= 2 && runes[i-1] == '\n' && runes[i-2] == '\n'
}

// isSentenceBreak reports whether runes[i-1] is the whitespace following a
// sentence terminator, so the next chunk opens on a fresh sentence.
func isSentenceBreak(runes []rune, i int) bool {
	if i < 2 {
		return false
	}
	if runes[i-1] != ' ' && runes[i-1] != '\n' {
		return false
	}
	switch runes[i-2] {
	case '.', '!', '?':
		return true
	}
	return false
}

// sectionMarks maps rune offsets to the most recent markdown heading above
// them. Extraction upstream emits markdown, so headings are the section
// signal we get.
type sectionMarks struct {
	offsets []int
	labels  []string
}

func scanSections(runes []rune) sectionMarks {
	var marks sectionMarks
	lineStart := 0
	for i := 0; i <= len(runes); i++ {
		if i < len(runes) && runes[i] != '\n' {
			continue
		}
		if label, ok := headingLabel(runes[lineStart:i]); ok {
			marks.offsets = append(marks.offsets, lineStart)
			marks.labels = append(marks.labels, label)
		}
		lineStart = i + 1
	}
	return marks
}

// headingLabel extracts the title from a markdown heading line.
func headingLabel(line []rune) (string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(line) || line[level] != ' ' {
		return "", false
	}
	title := strings.TrimSpace(string(line[level+1:]))
	if title == "" {
		return "", false
	}
	return title, true
}

// labelAt returns the heading governing the given offset, or "" when the
// offset precedes every heading.
func (s sectionMarks) labelAt(offset int) string {
	label := ""
	for i, off := range s.offsets {
		if off > offset {
			break
		}
		label = s.labels[i]
	}
	return label
}
