package generation

import "errors"

// Common errors returned by the generation package.
var (
	// ErrGenerationFailed is returned when a generation request fails for
	// any general, permanent reason.
	ErrGenerationFailed = errors.New("failed to generate content")

	// ErrInvalidResponse is returned when the provider response cannot be
	// parsed or is malformed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the provider blocks the content
	// due to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrRateLimited is returned when the provider rejects a request for
	// rate-limit reasons. It is the only error class the retry helper
	// retries.
	ErrRateLimited = errors.New("rate limited by language model provider")

	// ErrTransientFailure is returned for temporary transport errors that
	// might resolve on retry.
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the provider configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generation configuration")
)

// IsRateLimited reports whether err is classified as a rate-limit rejection.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
