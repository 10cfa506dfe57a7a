package exposure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError_Kinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "invalid csv", err: &Error{Kind: InvalidCSV}, wantCode: "FILE002"},
		{name: "failed to parse", err: &Error{Kind: FailedToParse, Line: 3}, wantCode: "VAL001"},
		{name: "shutter speed", err: &Error{Kind: InvalidShutterSpeed, Value: "fast"}, wantCode: "EXP001"},
		{name: "compensation parse", err: &Error{Kind: ExposureCompensationParse, Err: ErrTermSyntax}, wantCode: "EXP002"},
		{name: "invalid compensation", err: &Error{Kind: InvalidExposureCompensation}, wantCode: "EXP003"},
		{name: "wrapped kind", err: fmt.Errorf("upload: %w", &Error{Kind: InvalidShutterSpeed}), wantCode: "EXP001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError().Code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestMapError_Patterns(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "body too large", err: errors.New("http: request body too large"), wantCode: "FILE001"},
		{name: "file too large", err: errors.New("File Too Large"), wantCode: "FILE001"},
		{name: "bad form", err: errors.New("invalid upload form: multipart: NextPart: EOF"), wantCode: "FILE003"},
		{name: "no file", err: errors.New("no file provided"), wantCode: "FILE004"},
		{name: "empty file", err: errors.New("empty file"), wantCode: "FILE005"},
		{name: "content type", err: errors.New("unsupported content type application/json"), wantCode: "FILE006"},
		{name: "busy", err: errors.New("too many concurrent reads, please try again later"), wantCode: "UPL003"},
		{name: "canceled", err: context.Canceled, wantCode: "UPL004"},
		{name: "deadline", err: context.DeadlineExceeded, wantCode: "UPL005"},
		{name: "rate limit", err: errors.New("rate limit exceeded"), wantCode: "RATE001"},
		{name: "unknown", err: errors.New("something odd"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError().Code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if got := MapError(nil); got != (UserMessage{}) {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}

func TestMapError_ErrorsHaveActions(t *testing.T) {
	for kind, msg := range kindMessages {
		if msg.Message == "" || msg.Action == "" || msg.Code == "" {
			t.Errorf("kind %v has incomplete message: %+v", kind, msg)
		}
	}
	for _, ep := range errorPatterns {
		if ep.pattern != strings.ToLower(ep.pattern) {
			t.Errorf("pattern %q must be lowercase", ep.pattern)
		}
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(&Error{Kind: InvalidShutterSpeed, Value: "fast"})
	want := `Invalid shutter speed (Code: EXP001). Write shutter speeds as 1/250 or 2"`
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: errors.New("something odd"), want: false},
		{err: &Error{Kind: FailedToParse}, want: true},
		{err: errors.New("no file provided"), want: true},
	}

	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should be nil")
	}

	tech := &Error{Kind: InvalidExposureCompensation, Value: "1 2 3"}
	ue := NewUserError(tech)

	if ue.Error() != "Exposure compensation has too many parts" {
		t.Errorf("Error() = %q", ue.Error())
	}
	if ue.User.Code != "EXP003" {
		t.Errorf("Code = %q, want EXP003", ue.User.Code)
	}
	if !errors.Is(ue, InvalidExposureCompensation) {
		t.Error("expected UserError to unwrap to its kind")
	}
	if !errors.Is(ue, tech) {
		t.Error("expected UserError to unwrap to the technical error")
	}
}
