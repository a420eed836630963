package models

import "fmt"

// Error codes used throughout the scraping pipeline.
const (
	ErrCodeTimeout    = "SCRAPE_TIMEOUT"
	ErrCodeNavigation = "NAVIGATION_FAILED"
	ErrCodeForbidden  = "FORBIDDEN"
	ErrCodeChallenge  = "CHALLENGE_UNRESOLVED"
	ErrCodeFallback   = "FALLBACK_FAILED"
	ErrCodeNoData     = "NO_DATA_EXTRACTED"
	ErrCodeBrowser    = "BROWSER_CRASH"
	ErrCodeStorage    = "STORAGE_FAILED"
)

// ScrapeError is the internal error type carrying an error code and,
// for HTTP-level failures, the response status.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code       string
	Message    string
	StatusCode int   // 0 when the failure is not tied to an HTTP status
	Err        error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// NewHTTPError creates a ScrapeError for a non-200 response. A 403 is
// classified as Forbidden so callers can decide fallback eligibility.
func NewHTTPError(status int) *ScrapeError {
	code := ErrCodeNavigation
	if status == 403 {
		code = ErrCodeForbidden
	}
	return &ScrapeError{
		Code:       code,
		Message:    fmt.Sprintf("HTTP %d", status),
		StatusCode: status,
	}
}
