// Package tokens provides token counting using tiktoken-go.
// The memory store uses it to enforce the retrieval context budget.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens with the cl100k_base encoding. The encoding is
// loaded lazily on first use; construct one Counter and share it.
type Counter struct {
	enc  *tiktoken.Tiktoken
	once sync.Once
	err  error
}

// NewCounter creates a token counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	c.init()
	if c.err != nil || c.enc == nil {
		// Fallback: rough estimate (4 chars per token)
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// CountAll returns the total token count across texts.
func (c *Counter) CountAll(texts ...string) int {
	total := 0
	for _, text := range texts {
		total += c.Count(text)
	}
	return total
}

func (c *Counter) init() {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding("cl100k_base")
	})
}
