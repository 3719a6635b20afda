package chunking

import "strings"

// defaultSeparators are tried in order; the first one that actually
// splits the text wins. Mirrors the usual recursive character splitter
// configuration for prose.
var defaultSeparators = []string{"\n\n", "\n", ". ", " "}

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 600
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split breaks text into ordered fragments of at most ChunkSize runes.
// It prefers breaking on paragraph, line, sentence and word boundaries
// before cutting mid-word, and carries Overlap runes of context between
// adjacent fragments.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	segments := s.segment(text, 0)
	return s.merge(segments)
}

// segment recursively splits until every piece fits ChunkSize.
func (s *Splitter) segment(text string, sepIndex int) []string {
	if len([]rune(text)) <= s.ChunkSize {
		return []string{text}
	}
	if sepIndex >= len(defaultSeparators) {
		return s.hardCut(text)
	}

	sep := defaultSeparators[sepIndex]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return s.segment(text, sepIndex+1)
	}

	out := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 && sep == ". " {
			part += "."
		}
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, s.segment(part, sepIndex+1)...)
	}
	return out
}

func (s *Splitter) hardCut(text string) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	for start := 0; start < len(runes); start += s.ChunkSize {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// merge packs small segments back together up to ChunkSize, carrying an
// Overlap-sized tail of each chunk into the next.
func (s *Splitter) merge(segments []string) []string {
	out := make([]string, 0, len(segments))
	var current strings.Builder

	flush := func() string {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		if chunk != "" {
			out = append(out, chunk)
		}
		return chunk
	}

	for _, segment := range segments {
		if current.Len() == 0 {
			current.WriteString(segment)
			continue
		}
		if len([]rune(current.String()))+1+len([]rune(segment)) <= s.ChunkSize {
			current.WriteString(" ")
			current.WriteString(segment)
			continue
		}

		chunk := flush()
		if s.Overlap > 0 && chunk != "" {
			tail := overlapTail(chunk, s.Overlap)
			if tail != "" && len([]rune(tail))+1+len([]rune(segment)) <= s.ChunkSize {
				current.WriteString(tail)
				current.WriteString(" ")
			}
		}
		current.WriteString(segment)
	}
	flush()
	return out
}

// overlapTail returns the last n runes of s, aligned to a word start.
func overlapTail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	tail := string(runes[len(runes)-n:])
	if idx := strings.IndexByte(tail, ' '); idx >= 0 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}
