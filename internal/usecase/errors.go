package usecase

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindFailure ErrorKind = iota
	KindNotFound
	KindInvalidState
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "failure"
	}
}

// 業務エラーは Kind と利用者向けメッセージを持つ。
// KindFailure はDBなどインフラ起因で、Err に元のエラーを保持する。
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewNotFound(message string) error {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewInvalidState(message string) error {
	return &AppError{Kind: KindInvalidState, Message: message}
}

func NewFailure(message string, err error) error {
	return &AppError{Kind: KindFailure, Message: message, Err: err}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func IsKind(err error, kind ErrorKind) bool {
	ae, ok := AsAppError(err)
	return ok && ae.Kind == kind
}

// Tx内で起きたエラーをそのまま返すか、Failureで包む
func asFailure(message string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsAppError(err); ok {
		return err
	}
	return NewFailure(message, err)
}
