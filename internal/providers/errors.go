package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"docrag/internal/util"

	openai "github.com/sashabaranov/go-openai"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

// ClassifyError maps a provider failure to an ErrorType. HTTP status codes
// from OpenAI-compatible APIs are trusted first, then the message text.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTransient
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return ErrorQuota
		}
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return ErrorRate
		case apiErr.HTTPStatusCode >= 500:
			return ErrorTransient
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 500 {
		return ErrorTransient
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context length"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"),
		strings.Contains(e, "connection refused"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// Classified wraps err with the util sentinel matching its ErrorType.
func Classified(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range []error{util.ErrQuotaExhausted, util.ErrRateLimited, util.ErrTransient, util.ErrContextTooLong, util.ErrPermanent} {
		if errors.Is(err, s) {
			return err
		}
	}
	var sentinel error
	switch ClassifyError(err) {
	case ErrorQuota:
		sentinel = util.ErrQuotaExhausted
	case ErrorRate:
		sentinel = util.ErrRateLimited
	case ErrorTransient:
		sentinel = util.ErrTransient
	case ErrorContext:
		sentinel = util.ErrContextTooLong
	default:
		sentinel = util.ErrPermanent
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
