// Package tokencount estimates token counts for arbitrary text using
// tiktoken-go.
package tokencount

import (
	"log/slog"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter estimates a token count for text. ceil(chars/4) is the
// floor-level fallback, but implementations may substitute exact
// tokenizers provided result ordering is preserved.
type Counter interface {
	Count(text string) int
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func getEncoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.EncodingForModel("text-embedding-3-small")
	})
	return enc, encErr
}

// TiktokenCounter counts tokens using the text-embedding-3-small encoding.
// It degrades to the ceil(chars/4) estimate if the encoding fails to load.
type TiktokenCounter struct{}

// New returns the default Counter implementation.
func New() Counter {
	return TiktokenCounter{}
}

func (TiktokenCounter) Count(text string) int {
	tke, err := getEncoding()
	if err != nil {
		slog.Warn("tokencount: falling back to char estimate", "error", err)
		return EstimateChars(text)
	}
	return len(tke.Encode(text, nil, nil))
}

// EstimateChars implements the bare contract: ceil(chars/4).
func EstimateChars(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
