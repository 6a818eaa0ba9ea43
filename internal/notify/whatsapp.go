package notify

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/hamed0406/alertrelay/internal/domain"
)

const messagingProduct = "whatsapp"

type textBody struct {
	Body string `json:"body"`
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type videoRef struct {
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
}

type videoMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Video            videoRef `json:"video"`
}

type uploadResult struct {
	ID string `json:"id"`
}

// WhatsApp talks to the Cloud API for a single sender phone number.
// Calls are never retried.
type WhatsApp struct {
	http          *resty.Client
	phoneNumberID string
	log           *zap.Logger
}

func NewWhatsApp(baseURL string, creds domain.Credentials, timeout time.Duration, log *zap.Logger) *WhatsApp {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(creds.AccessToken).
		SetHeader("Accept", "application/json").
		SetLogger(log.Sugar())

	return &WhatsApp{
		http:          client,
		phoneNumberID: creds.PhoneNumberID,
		log:           log,
	}
}

func (w *WhatsApp) SendText(ctx context.Context, to, body string) (*ProviderResponse, error) {
	return w.postMessage(ctx, "send_text", textMessage{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
}

func (w *WhatsApp) SendMediaMessage(ctx context.Context, to, mediaID, caption string) (*ProviderResponse, error) {
	return w.postMessage(ctx, "send_video", videoMessage{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "video",
		Video:            videoRef{ID: mediaID, Caption: caption},
	})
}

// UploadMedia posts the clip as multipart form data and returns the media id.
func (w *WhatsApp) UploadMedia(ctx context.Context, filename string, r io.Reader, mimeType string) (string, error) {
	const op = "upload_media"
	resp, err := w.http.R().
		SetContext(ctx).
		SetPathParam("phoneNumberID", w.phoneNumberID).
		SetMultipartField("file", filename, mimeType, r).
		SetMultipartFormData(map[string]string{
			"messaging_product": messagingProduct,
			"type":              mimeType,
		}).
		Post("/{phoneNumberID}/media")
	if err := w.check(op, resp, err); err != nil {
		return "", err
	}

	var out uploadResult
	if err := json.Unmarshal(resp.Body(), &out); err != nil || out.ID == "" {
		return "", &UpstreamError{Op: op, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	w.log.Info("whatsapp_media_uploaded", zap.String("media_id", out.ID), zap.String("mime", mimeType))
	return out.ID, nil
}

func (w *WhatsApp) postMessage(ctx context.Context, op string, payload any) (*ProviderResponse, error) {
	resp, err := w.http.R().
		SetContext(ctx).
		SetPathParam("phoneNumberID", w.phoneNumberID).
		SetBody(payload).
		Post("/{phoneNumberID}/messages")
	if err := w.check(op, resp, err); err != nil {
		return nil, err
	}

	var out ProviderResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		// 2xx with an unexpected body still counts as delivered
		w.log.Warn("whatsapp_unparsed_response", zap.String("op", op), zap.Error(err))
	}
	w.log.Info("whatsapp_message_sent", zap.String("op", op), zap.String("message_id", out.MessageID()))
	return &out, nil
}

func (w *WhatsApp) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		w.log.Error("whatsapp_call_failed", zap.String("op", op), zap.Error(err))
		return &UpstreamError{Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		w.log.Error("whatsapp_non_2xx",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
