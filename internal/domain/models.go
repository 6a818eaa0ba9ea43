package domain

import (
	"io"
	"time"
)

// AlertRequest is one inbound alert as received from the client.
type AlertRequest struct {
	Latitude  string
	Longitude string
	Clip      io.Reader // nil when the client sent no video part
	ClipName  string    // client-declared filename of the video part
}

type ClipFormat string

const (
	FormatWebM ClipFormat = "webm"
	FormatMP4  ClipFormat = "mp4"
)

// MIMEType is the content type used when uploading a clip of this format.
func (f ClipFormat) MIMEType() string {
	if f == FormatMP4 {
		return "video/mp4"
	}
	return "video/webm"
}

// StoredClip is a recording on local disk, owned by a single pipeline run.
type StoredClip struct {
	Path   string
	Format ClipFormat
}

// Credentials for the messaging provider. Loaded once, read-only afterwards.
type Credentials struct {
	PhoneNumberID string
	AccessToken   string
	Recipient     string
}

func (c Credentials) Complete() bool {
	return c.PhoneNumberID != "" && c.AccessToken != "" && c.Recipient != ""
}

// AlertOutcome is the terminal JSON shape returned to the caller.
type AlertOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type AlertID string

// AlertRecord is one history row per dispatch attempt.
type AlertRecord struct {
	ID          AlertID    `json:"id"`
	Latitude    string     `json:"latitude"`
	Longitude   string     `json:"longitude"`
	Success     bool       `json:"success"`
	Error       string     `json:"error,omitempty"`
	FailedStage string     `json:"failed_stage,omitempty"`
	ClipFormat  ClipFormat `json:"clip_format,omitempty"`
	MediaID     string     `json:"media_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
