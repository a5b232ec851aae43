// Package chunk splits reply text into pieces small enough for a single chat
// message.
package chunk

import "iter"

// MaxLen is the largest chunk, in characters, sent as one chat message.
const MaxLen = 4000

// Split cuts text into consecutive pieces of at most max characters. Pieces
// are cut on the character boundary only; words, lines and whitespace are left
// exactly as they are, so joining the result reproduces text. An empty text
// yields no pieces. A non-positive max means MaxLen.
func Split(text string, max int) []string {
	var out []string
	for c := range All(text, max) {
		out = append(out, c)
	}
	return out
}

// All is the iterator form of Split. Each range over it starts from the
// beginning of text.
func All(text string, max int) iter.Seq[string] {
	if max <= 0 {
		max = MaxLen
	}
	return func(yield func(string) bool) {
		rest := text
		for rest != "" {
			end := boundary(rest, max)
			if !yield(rest[:end]) {
				return
			}
			rest = rest[end:]
		}
	}
}

// boundary returns the byte offset just past the first max characters of s,
// or len(s) when s is shorter.
func boundary(s string, max int) int {
	n := 0
	for i := range s {
		if n == max {
			return i
		}
		n++
	}
	return len(s)
}
