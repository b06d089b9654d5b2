package data

import "fmt"

// ProviderError is a failed request to a remote data source.
type ProviderError struct {
	Source     string
	StatusCode int
	Message    string
	// Err is model.ErrDataUnavailable when the source has no data for the request.
	Err error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %d: %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
