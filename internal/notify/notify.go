package notify

import (
	"context"
	"fmt"
	"io"
)

// Messenger is the provider surface the alert pipeline depends on.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (*ProviderResponse, error)
	UploadMedia(ctx context.Context, filename string, r io.Reader, mimeType string) (string, error)
	SendMediaMessage(ctx context.Context, to, mediaID, caption string) (*ProviderResponse, error)
}

// ProviderResponse is the subset of the Cloud API message response we read.
type ProviderResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// MessageID returns the first message id, or "" when the provider sent none.
func (p *ProviderResponse) MessageID() string {
	if p == nil || len(p.Messages) == 0 {
		return ""
	}
	return p.Messages[0].ID
}

// UpstreamError is a failed provider call. Body holds the raw response text
// for non-2xx replies; Err is set for transport failures.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("whatsapp %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("whatsapp %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Detail is the text surfaced to the alert sender.
func (e *UpstreamError) Detail() string {
	if e.Err != nil && e.Body == "" {
		return e.Err.Error()
	}
	return e.Body
}
