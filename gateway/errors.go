// ABOUTME: Typed gateway errors and the apology text shown for each failure kind
// ABOUTME: Classifies genai API errors, network errors and context errors without string matching
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"google.golang.org/genai"
)

// Kind classifies a gateway failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindQuota
	KindNetwork
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindQuota:
		return "quota"
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Error is returned by every failed completion.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a gateway error, or KindUnknown for anything else.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnknown
}

// Apology strings appended to the transcript in place of a reply.
const (
	ApologyConfiguration = "Desculpe, não consigo responder no momento. A API key não está configurada corretamente."
	ApologyQuota         = "Desculpe, atingimos o limite de uso da API. Tente novamente mais tarde."
	ApologyNetwork       = "Desculpe, estou com problemas de conexão. Verifique sua internet e tente novamente."
	ApologyUnknown       = "Desculpe, ocorreu um erro inesperado. Tente novamente em alguns instantes."

	// Shown when the session opened without a working gateway.
	ApologyNotConfigured = "Desculpe, a API do Gemini não está configurada. Configure a variável VITE_GEMINI_API_KEY."
	ApologyOffline       = "Desculpe, não consigo me conectar com a API do Gemini no momento."
)

// Apology maps a failure kind to the message the user sees.
func Apology(kind Kind) string {
	switch kind {
	case KindConfiguration:
		return ApologyConfiguration
	case KindQuota:
		return ApologyQuota
	case KindNetwork:
		return ApologyNetwork
	}
	return ApologyUnknown
}

// classify wraps err into an *Error with the matching kind.
func classify(err error) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return &Error{Kind: kindFor(err), Err: err}
}

func kindFor(err error) Kind {
	if apiErr, ok := asAPIError(err); ok {
		code, status := apiErr.Code, apiErr.Status
		switch {
		case hasReason(apiErr, "API_KEY_INVALID"):
			return KindConfiguration
		case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
			return KindQuota
		case code == http.StatusUnauthorized || code == http.StatusForbidden ||
			status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED":
			return KindConfiguration
		case code == http.StatusBadGateway || code == http.StatusServiceUnavailable ||
			code == http.StatusGatewayTimeout || status == "UNAVAILABLE":
			return KindNetwork
		}
		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}
	return KindUnknown
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

// hasReason looks for a google.rpc.ErrorInfo detail carrying reason.
func hasReason(apiErr genai.APIError, reason string) bool {
	for _, detail := range apiErr.Details {
		if r, ok := detail["reason"].(string); ok && r == reason {
			return true
		}
	}
	return false
}
