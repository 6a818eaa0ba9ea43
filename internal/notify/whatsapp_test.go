package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/alertrelay/internal/domain"
)

var testCreds = domain.Credentials{PhoneNumberID: "1098765", AccessToken: "tok_123", Recipient: "+15550001"}

func newTestClient(url string) *WhatsApp {
	return NewWhatsApp(url+"/v18.0", testCreds, 2*time.Second, zap.NewNop())
}

func TestWhatsApp_SendText_OK(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v18.0/1098765/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok_123" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("unexpected content type %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.1"}]}`))
	}))
	defer ts.Close()

	resp, err := newTestClient(ts.URL).SendText(context.Background(), "+15550001", "help")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if resp.MessageID() != "wamid.1" {
		t.Fatalf("want wamid.1, got %q", resp.MessageID())
	}
	if got["messaging_product"] != "whatsapp" || got["to"] != "+15550001" || got["type"] != "text" {
		t.Fatalf("payload not as expected: %+v", got)
	}
	text, _ := got["text"].(map[string]any)
	if text["body"] != "help" {
		t.Fatalf("text body wrong: %+v", got["text"])
	}
}

func TestWhatsApp_SendText_Non2xxKeepsBody(t *testing.T) {
	const body = `{"error":{"message":"Invalid OAuth access token","code":190}}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).SendText(context.Background(), "+1", "x")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("want *UpstreamError, got %v", err)
	}
	if ue.StatusCode != http.StatusUnauthorized || ue.Detail() != body {
		t.Fatalf("unexpected upstream error: %+v", ue)
	}
}

func TestWhatsApp_UploadMedia_Multipart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v18.0/1098765/media" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok_123" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("messaging_product") != "whatsapp" || r.FormValue("type") != "video/mp4" {
			t.Errorf("form fields wrong: %+v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part missing: %v", err)
		} else {
			defer f.Close()
			b, _ := io.ReadAll(f)
			if string(b) != "clip-bytes" || hdr.Filename != "emergency_1.mp4" {
				t.Errorf("file part wrong: %q %q", hdr.Filename, b)
			}
			if ct := hdr.Header.Get("Content-Type"); ct != "video/mp4" {
				t.Errorf("file content type %q", ct)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"media-42"}`))
	}))
	defer ts.Close()

	id, err := newTestClient(ts.URL).UploadMedia(context.Background(), "emergency_1.mp4", strings.NewReader("clip-bytes"), "video/mp4")
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if id != "media-42" {
		t.Fatalf("want media-42, got %q", id)
	}
}

func TestWhatsApp_UploadMedia_MissingID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).UploadMedia(context.Background(), "a.webm", strings.NewReader("x"), "video/webm")
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Body != "{}" {
		t.Fatalf("want upstream error carrying body, got %v", err)
	}
}

func TestWhatsApp_SendMediaMessage_Payload(t *testing.T) {
	var got struct {
		MessagingProduct string `json:"messaging_product"`
		To               string `json:"to"`
		Type             string `json:"type"`
		Video            struct {
			ID      string `json:"id"`
			Caption string `json:"caption"`
		} `json:"video"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.2"}]}`))
	}))
	defer ts.Close()

	if _, err := newTestClient(ts.URL).SendMediaMessage(context.Background(), "+1", "media-42", "Emergency video recording"); err != nil {
		t.Fatalf("SendMediaMessage: %v", err)
	}
	if got.MessagingProduct != "whatsapp" || got.Type != "video" || got.Video.ID != "media-42" || got.Video.Caption != "Emergency video recording" {
		t.Fatalf("payload not as expected: %+v", got)
	}
}

func TestWhatsApp_TimeoutIsUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	c := NewWhatsApp(ts.URL, testCreds, 50*time.Millisecond, nil)
	_, err := c.SendText(context.Background(), "+1", "x")
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Err == nil {
		t.Fatalf("want transport upstream error, got %v", err)
	}
	if ue.Detail() == "" {
		t.Fatalf("want non-empty detail")
	}
}
