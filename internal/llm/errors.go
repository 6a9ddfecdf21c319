package llm

import "errors"

var (
	// ErrOllamaUnavailable indicates the Ollama server is unreachable.
	ErrOllamaUnavailable = errors.New("ollama server unavailable")

	// ErrNoCredential indicates the hosted backend has no API key to call with.
	ErrNoCredential = errors.New("no llm credential configured")

	// ErrTimeout indicates the LLM request exceeded the configured timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrInvalidOutput indicates the LLM response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid llm output format")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")
)

// IsUnconfigured reports whether err means no backend can be reached at all,
// as opposed to a backend that answered badly.
func IsUnconfigured(err error) bool {
	return errors.Is(err, ErrNoCredential) || errors.Is(err, ErrOllamaUnavailable)
}
