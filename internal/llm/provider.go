// Package llm talks to language-model providers for free-form replies and receipt reading.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
)

// ErrRateLimited marks a provider failure caused by rate limiting or overload.
var ErrRateLimited = errors.New("provider rate limited or overloaded")

// Provider answers a text prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// VisionProvider can also read an image.
type VisionProvider interface {
	Provider
	Describe(ctx context.Context, prompt string, image []byte, mime string) (string, error)
}

// IsRetryable reports whether err is a rate-limit or overload failure.
// Every other failure class, timeouts included, is not retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || overloadStatus(err)
}

// classify tags SDK rate-limit and overload failures with ErrRateLimited.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrRateLimited) || !overloadStatus(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRateLimited, err)
}

func overloadStatus(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var anthErr *anthropic.Error
	if errors.As(err, &anthErr) {
		return retryableStatus(anthErr.StatusCode)
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, 529:
		return true
	}
	return false
}
