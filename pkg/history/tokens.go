package history

import (
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/tiktoken-go/tokenizer"
)

// Counter counts the tokens of a piece of text.
type Counter interface {
	Count(text string) int
}

// TokenCounter counts with a tiktoken codec.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter uses cl100k_base, the encoding of the gpt-3.5/gpt-4 family.
// The models served behind the OpenAI-compatible endpoint use their own
// vocabularies, so counts are an estimate of the same order.
func NewTokenCounter() (*TokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, errors.Wrap(err, "loading cl100k_base codec")
	}
	return &TokenCounter{codec: codec}, nil
}

func (c *TokenCounter) Count(text string) int {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return RuneCounter{}.Count(text)
	}
	return len(ids)
}

// RuneCounter estimates one token per four characters.
type RuneCounter struct{}

func (RuneCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
