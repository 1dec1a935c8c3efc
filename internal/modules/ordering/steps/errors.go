package steps

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindEmptyMessage         ErrorKind = "empty_message"
	KindConversationNotFound ErrorKind = "conversation_not_found"
	KindValidation           ErrorKind = "validation"
	KindUnexpected           ErrorKind = "unexpected"
)

// TurnError is the only error type returned by ProcessTurn, StreamTurn and GetConversation.
type TurnError struct {
	Kind ErrorKind
	Err  error
}

func (e *TurnError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *TurnError) Unwrap() error { return e.Err }

func newTurnError(kind ErrorKind, err error) *TurnError {
	return &TurnError{Kind: kind, Err: err}
}

var (
	ErrEmptyMessage         = errors.New("message is empty")
	ErrConversationNotFound = errors.New("conversation not found")
)

// KindOf returns the TurnError kind of err, or KindUnexpected for any other error.
func KindOf(err error) ErrorKind {
	var te *TurnError
	if errors.As(err, &te) && te != nil {
		return te.Kind
	}
	return KindUnexpected
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// asUnexpected wraps err unless it already is a TurnError.
func asUnexpected(err error) error {
	if err == nil {
		return nil
	}
	var te *TurnError
	if errors.As(err, &te) {
		return err
	}
	return newTurnError(KindUnexpected, err)
}
