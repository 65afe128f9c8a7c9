package compose

import (
	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter counts BPE tokens for resolved prompt text.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter builds a counter for the given encoding name.
// Unknown encodings fall back to cl100k_base.
func NewTokenCounter(encoding string) (*TokenCounter, error) {
	enc := tokenizer.Cl100kBase
	switch encoding {
	case "o200k_base":
		enc = tokenizer.O200kBase
	case "p50k_base":
		enc = tokenizer.P50kBase
	case "r50k_base":
		enc = tokenizer.R50kBase
	}

	codec, err := tokenizer.Get(enc)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{codec: codec}, nil
}

// Count returns the number of tokens in text. Empty text counts as zero,
// and encoding failures are treated as zero rather than surfaced.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0
	}
	return len(ids)
}
