package core

// error_messages.go maps pipeline errors to short user-facing messages with
// a code that can be quoted when reporting a problem.
//
// Codes:
//
//	SRC001 - Cannot reach the data source (*ConnectionError)
//	SRC002 - Query or cursor failure (*DataSourceError)
//	SRC003 - Relation missing ("does not exist", "no such table")
//	SRC004 - Query rejected by the parser ("syntax error")
//	ARG001 - Invalid argument (ErrInvalidArgument)
//	CNV001 - Field could not be converted (*ConversionError)
//	LIM001 - Too many parallel traversals (ErrTooManyTraversals)
//	CTX001 - Cancelled (context.Canceled)
//	CTX002 - Deadline exceeded (context.DeadlineExceeded)
//	ERR000 - Anything else
//
// Connection errors are matched first. Then the lowercased message is
// checked for specific driver causes, then typed errors with errors.Is/As,
// then generic driver text. The first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage is an error rendered for people rather than logs.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

var (
	msgConnection = UserMessage{
		Message: "Unable to connect to the data source",
		Action:  "Check DATABASE_URL and that the server is reachable",
		Code:    "SRC001",
	}
	msgDataSource = UserMessage{
		Message: "The data source failed while reading rows",
		Action:  "Check the query and try again",
		Code:    "SRC002",
	}
	msgNoRelation = UserMessage{
		Message: "The queried table does not exist",
		Action:  "Run the seed command or fix the table name",
		Code:    "SRC003",
	}
	msgSyntax = UserMessage{
		Message: "The query could not be parsed",
		Action:  "Fix the SQL syntax",
		Code:    "SRC004",
	}
	msgInvalidArgument = UserMessage{
		Message: "Invalid argument",
		Action:  "Sizes must be positive and offsets non-negative",
		Code:    "ARG001",
	}
	msgConversion = UserMessage{
		Message: "A field could not be read as a number",
		Action:  "Check the field name and its values",
		Code:    "CNV001",
	}
	msgTooMany = UserMessage{
		Message: "Too many traversals are running",
		Action:  "Lower the fan-out or raise STREAM_MAX_PARALLEL",
		Code:    "LIM001",
	}
	msgCanceled = UserMessage{
		Message: "The operation was cancelled",
		Action:  "Run it again",
		Code:    "CTX001",
	}
	msgDeadline = UserMessage{
		Message: "The operation timed out",
		Action:  "Raise the timeout or narrow the query",
		Code:    "CTX002",
	}
	defaultMessage = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Check the logs for details",
		Code:    "ERR000",
	}
)

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// causePatterns identify driver causes more specific than the core error
// wrapping them.
var causePatterns = []errorPattern{
	{pattern: "does not exist", msg: msgNoRelation},
	{pattern: "no such table", msg: msgNoRelation},
	{pattern: "syntax error", msg: msgSyntax},
}

// fallbackPatterns cover driver errors that arrive without a core type.
var fallbackPatterns = []errorPattern{
	{pattern: "connection refused", msg: msgConnection},
	{pattern: "connection reset", msg: msgConnection},
	{pattern: "timeout", msg: msgDeadline},
}

func matchPattern(lower string, patterns []errorPattern) (UserMessage, bool) {
	for _, ep := range patterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// MapError converts err to a user-facing message. A nil error maps to the
// zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		ce  *ConnectionError
		de  *DataSourceError
		cve *ConversionError
	)
	if errors.As(err, &ce) {
		return msgConnection
	}

	// Causes are matched before the remaining wrappers so that a
	// DataSourceError caused by a missing table reports the table.
	lower := strings.ToLower(err.Error())
	if msg, ok := matchPattern(lower, causePatterns); ok {
		return msg
	}

	switch {
	case errors.Is(err, context.Canceled):
		return msgCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return msgDeadline
	case errors.Is(err, ErrTooManyTraversals):
		return msgTooMany
	case errors.Is(err, ErrInvalidArgument):
		return msgInvalidArgument
	case errors.As(err, &cve):
		return msgConversion
	case errors.As(err, &de):
		return msgDataSource
	}

	if msg, ok := matchPattern(lower, fallbackPatterns); ok {
		return msg
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message. Error
// returns the user message; Unwrap returns the technical error.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
