package bybit

import "fmt"

// APIError represents a Bybit API error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Bybit API error %d: %s", e.Code, e.Message)
}

const (
	ErrCodeRateLimitExceeded = 10006
)

// IsRetryableError reports whether an API error is worth retrying.
func IsRetryableError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		switch apiErr.Code {
		case ErrCodeRateLimitExceeded, 500, 502, 503, 504:
			return true
		}
	}
	return false
}
