package push

import (
	"context"
	"regexp"
)

// Message is a notification with a data payload. Data values are strings
// because that is all FCM accepts.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Failure is one token the provider did not accept.
type Failure struct {
	Token string
	Err   error
	// Unregistered is set when the provider says the token is gone for good.
	Unregistered bool
}

type BatchResult struct {
	Sent   []string
	Failed []Failure
}

// Unregistered returns the tokens that should be removed from storage.
func (r *BatchResult) Unregistered() []string {
	var out []string
	for _, f := range r.Failed {
		if f.Unregistered {
			out = append(out, f.Token)
		}
	}
	return out
}

// Sender delivers one message to a batch of device tokens. A non-nil error
// means the whole batch failed; per-token failures are in the result.
type Sender interface {
	MaxBatchSize() int
	SendBatch(ctx context.Context, tokens []string, msg Message) (*BatchResult, error)
}

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_:\-]+$`)

// ValidToken reports whether token is shaped like an FCM registration token.
func ValidToken(token string) bool {
	return token != "" && len(token) <= 4096 && tokenPattern.MatchString(token)
}

// Chunk splits tokens into consecutive batches of at most size.
func Chunk(tokens []string, size int) [][]string {
	if size <= 0 || len(tokens) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := min(start+size, len(tokens))
		batches = append(batches, tokens[start:end])
	}
	return batches
}
