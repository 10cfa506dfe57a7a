package exposure

// error_messages.go maps errors to user-friendly messages with support codes.
//
// Read errors are mapped by kind:
//
//	FILE002 - InvalidCSV: the file could not be read or its header is wrong
//	VAL001  - FailedToParse: a row has a malformed number or missing cell
//	EXP001  - InvalidShutterSpeed: shutter speed is not 1/N or N"
//	EXP002  - ExposureCompensationParse: a compensation term is not a number or fraction
//	EXP003  - InvalidExposureCompensation: compensation has more than two terms
//
// Other errors fall back to case-insensitive pattern matching on the error text
// (FILE001, FILE003-FILE006, UPL003-UPL005, RATE001), and finally ERR000.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var kindMessages = map[ErrorKind]UserMessage{
	InvalidCSV: {
		Message: "File is not a valid exposure CSV",
		Action:  "Check the header contains " + strings.Join(Columns[:len(Columns)-1], ", "),
		Code:    "FILE002",
	},
	FailedToParse: {
		Message: "A row could not be read",
		Action:  "Check focal length, ISO and aperture are plain numbers",
		Code:    "VAL001",
	},
	InvalidShutterSpeed: {
		Message: "Invalid shutter speed",
		Action:  `Write shutter speeds as 1/250 or 2"`,
		Code:    "EXP001",
	},
	ExposureCompensationParse: {
		Message: "Invalid exposure compensation value",
		Action:  "Use numbers or fractions such as 0, -2/3 or 1 1/3",
		Code:    "EXP002",
	},
	InvalidExposureCompensation: {
		Message: "Exposure compensation has too many parts",
		Action:  "Use at most a whole number and a fraction, e.g. 1 1/3",
		Code:    "EXP003",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers transport errors that are not *Error values.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid upload form",
		msg: UserMessage{
			Message: "The upload could not be read",
			Action:  `Send the file as the multipart field "file" or as a text/csv body`,
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported content type",
		msg: UserMessage{
			Message: "Unsupported upload format",
			Action:  "Upload a CSV file",
			Code:    "FILE006",
		},
	},
	{
		pattern: "too many concurrent",
		msg: UserMessage{
			Message: "The server is busy reading other files",
			Action:  "Please try again in a few seconds",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
//
// Example:
//
//	msg := MapError(&Error{Kind: InvalidShutterSpeed, Value: "fast"})
//	// msg.Code == "EXP001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := kindMessages[KindOf(err)]; ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
// Error returns the user message; Unwrap returns the technical error.
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

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
