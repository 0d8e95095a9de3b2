package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrInvalidCredential indicates the provider rejected the API key (HTTP 401).
var ErrInvalidCredential = errors.New("ai credential rejected")

// ErrEmptyResponse is returned when the provider answered without any choice.
var ErrEmptyResponse = errors.New("ai returned no choices")
