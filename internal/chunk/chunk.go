package chunk

import "strings"

// Segment is a half-open token range [StartToken, EndToken).
type Segment struct {
	Index      int
	StartToken int
	EndToken   int
	Text       string
}

// Spans lays windows of size tokens over a sequence of total tokens,
// advancing by size-overlap each time. With complete set, a trailing window
// shorter than size is dropped; otherwise the tail is always covered.
func Spans(total, size, overlap int, complete bool) []Segment {
	if size <= 0 || total <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	if complete && total < size {
		return nil
	}

	step := size - overlap
	out := make([]Segment, 0, total/step+1)
	for start := 0; start < total; start += step {
		end := start + size
		if end > total {
			if complete {
				break
			}
			end = total
		}
		out = append(out, Segment{Index: len(out), StartToken: start, EndToken: end})
		if end == total {
			break
		}
	}
	return out
}

// Windows applies Spans to an already tokenized sequence and fills Text.
func Windows(tokens []string, size, overlap int, complete bool) []Segment {
	spans := Spans(len(tokens), size, overlap, complete)
	for i := range spans {
		spans[i].Text = strings.Join(tokens[spans[i].StartToken:spans[i].EndToken], " ")
	}
	return spans
}

// SlidingWindow splits text on whitespace and covers every token.
func SlidingWindow(text string, segmentTokens, overlapTokens int) []Segment {
	return Windows(strings.Fields(text), segmentTokens, overlapTokens, false)
}
