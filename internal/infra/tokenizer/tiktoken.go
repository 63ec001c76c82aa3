package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts prompt tokens with the tiktoken encoding of the
// configured model.
type Counter struct {
	encoding *tiktoken.Tiktoken
}

// NewCounter builds a counter for the model, falling back to the
// cl100k_base encoding for models tiktoken does not know.
func NewCounter(model string) (*Counter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load tiktoken encoding: %w", err)
		}
	}
	return &Counter{encoding: encoding}, nil
}

// Count returns the token count of the text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.encoding.Encode(text, nil, nil))
}
