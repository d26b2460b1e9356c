package reveal

import "strings"

// LineBreak is the markup a newline is rendered as.
const LineBreak = "<br>"

// Markup renders text the way bubbles display it, with newlines turned into line breaks.
func Markup(text string) string {
	return strings.ReplaceAll(text, "\n", LineBreak)
}

// Fragment renders a single character.
func Fragment(r rune) string {
	if r == '\n' {
		return LineBreak
	}
	return string(r)
}

// Sequence produces the rendered fragments of a text one character at a time.
// It can be rewound with Reset and is not safe for concurrent use.
type Sequence struct {
	runes []rune
	pos   int
}

func NewSequence(text string) *Sequence {
	return &Sequence{runes: []rune(text)}
}

// Next returns the next fragment, or false once the text is consumed.
func (s *Sequence) Next() (string, bool) {
	if s.pos >= len(s.runes) {
		return "", false
	}
	r := s.runes[s.pos]
	s.pos++
	return Fragment(r), true
}

// Reset rewinds the sequence to the first character.
func (s *Sequence) Reset() {
	s.pos = 0
}

// Len is the number of fragments the text renders to.
func (s *Sequence) Len() int {
	return len(s.runes)
}

func (s *Sequence) Remaining() int {
	return len(s.runes) - s.pos
}

// Rendered is the markup produced so far.
func (s *Sequence) Rendered() string {
	return Markup(string(s.runes[:s.pos]))
}

// Drain consumes the rest of the sequence and returns it as one piece of markup.
func (s *Sequence) Drain() string {
	rest := Markup(string(s.runes[s.pos:]))
	s.pos = len(s.runes)
	return rest
}

// Final is the markup of the whole text.
func (s *Sequence) Final() string {
	return Markup(string(s.runes))
}
