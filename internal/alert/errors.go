package alert

import (
	"errors"
	"net/http"

	"github.com/hamed0406/alertrelay/internal/domain"
)

const (
	MsgSuccess            = "Emergency alert sent successfully!"
	MsgLocationMissing    = "Location data missing"
	MsgVideoMissing       = "Video file missing"
	MsgInvalidFileType    = "Invalid file type"
	MsgNotConfigured      = "WhatsApp credentials not configured. Please set up your WhatsApp Cloud API credentials."
	MsgConversionFailed   = "Failed to convert video to MP4 format"
	msgTextFailedPrefix   = "Failed to send WhatsApp message: "
	msgUploadFailedPrefix = "Failed to upload video: "
	msgVideoFailedPrefix  = "Failed to send video message: "
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindConfiguration
	KindStorage
	KindConversion
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindStorage:
		return "storage"
	case KindConversion:
		return "conversion"
	case KindUpstream:
		return "upstream"
	}
	return "unknown"
}

// Error is a pipeline failure. Msg is exactly what the caller sees.
type Error struct {
	Kind  Kind
	Stage Stage
	Msg   string
	Err   error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	if e.Kind == KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Outcome converts the result of Dispatch into the response body and status.
func Outcome(err error) (domain.AlertOutcome, int) {
	if err == nil {
		return domain.AlertOutcome{Success: true, Message: MsgSuccess}, http.StatusOK
	}
	var ae *Error
	if errors.As(err, &ae) {
		return domain.AlertOutcome{Error: ae.Msg}, ae.Status()
	}
	return domain.AlertOutcome{Error: err.Error()}, http.StatusInternalServerError
}

func validation(msg string) *Error {
	return &Error{Kind: KindValidation, Stage: StageValidating, Msg: msg}
}
