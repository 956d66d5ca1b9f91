package enrichment

import "fmt"

// maxErrorBody bounds how much of an upstream body is kept on an error.
const maxErrorBody = 1024

// GenerationError reports a failed or unusable generative provider call.
type GenerationError struct {
	Provider   string
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func (e *GenerationError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (status %d): %s", e.Provider, e.Message, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewStatusError builds a GenerationError for a non-success HTTP response.
func NewStatusError(provider string, status int, body []byte) *GenerationError {
	b := string(body)
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return &GenerationError{
		Provider:   provider,
		StatusCode: status,
		Body:       b,
		Message:    "request failed",
	}
}

// NewInvalidOutputError builds a GenerationError for unparseable output.
func NewInvalidOutputError(provider string, err error) *GenerationError {
	return &GenerationError{
		Provider: provider,
		Message:  "invalid structured output",
		Err:      err,
	}
}

// NewTransportError builds a GenerationError for a call that never got a response.
func NewTransportError(provider string, err error) *GenerationError {
	return &GenerationError{
		Provider: provider,
		Message:  "request failed",
		Err:      err,
	}
}
