package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"stkdecider/models"
)

// Kind is the user-facing category of a failed request.
type Kind int

const (
	KindTransient Kind = iota
	KindInvalidInput
	KindNotFound
	KindRateLimited
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindCanceled:
		return "canceled"
	default:
		return "transient"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// HTTPStatus is the status a handler answers with for this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindCanceled:
		return 499
	default:
		return http.StatusBadGateway
	}
}

const (
	MsgEmptySymbol  = "please enter a stock symbol"
	MsgRateLimited  = "API rate limit reached, please try again later"
	MsgTransient    = "could not fetch the analysis, check the symbol and try again"
	MsgInvalidInput = "the analysis returned incomplete data, please try again"
	MsgCanceled     = "request superseded"
)

// UserError is the only error shape shown to end users. Cause is kept for
// logging and never rendered.
type UserError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Cause }

// NotFoundMessage interpolates the submitted symbol.
func NotFoundMessage(symbol string) string {
	return fmt.Sprintf("insufficient data found for %s", symbol)
}

// Classify converts any fetch or ingestion failure into a UserError.
func Classify(err error, symbol string) *UserError {
	if err == nil {
		return nil
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	if errors.Is(err, context.Canceled) {
		return &UserError{Kind: KindCanceled, Message: MsgCanceled, Cause: err}
	}
	if errors.Is(err, models.ErrInvalidInput) {
		return &UserError{Kind: KindInvalidInput, Message: MsgInvalidInput, Cause: err}
	}
	var he *HTTPError
	if errors.As(err, &he) {
		switch he.StatusCode {
		case http.StatusNotFound:
			return &UserError{Kind: KindNotFound, Message: NotFoundMessage(symbol), Cause: err}
		case http.StatusTooManyRequests:
			return &UserError{Kind: KindRateLimited, Message: MsgRateLimited, Cause: err}
		}
	}
	return &UserError{Kind: KindTransient, Message: MsgTransient, Cause: err}
}

// EmptySymbol is reported before any request is made.
func EmptySymbol() *UserError {
	return &UserError{Kind: KindInvalidInput, Message: MsgEmptySymbol}
}
