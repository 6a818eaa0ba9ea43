package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/alertrelay/internal/alert"
	"github.com/hamed0406/alertrelay/internal/domain"
	apimw "github.com/hamed0406/alertrelay/internal/httpapi/middleware"
	"github.com/hamed0406/alertrelay/internal/repo"
)

// multipart parts above this size spill to temp files instead of memory
const formMemory = 8 << 20

// Dispatcher runs one alert to completion.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.AlertRequest) error
}

type Server struct {
	Logger         *zap.Logger
	Alerts         Dispatcher
	History        repo.AlertLog
	MaxUploadBytes int64
}

type Options struct {
	AllowedOrigins []string // empty allows any origin
	HistoryKeys    []string
	SendRPM        int
	SendBurst      int
}

func NewServer(l *zap.Logger, alerts Dispatcher, history repo.AlertLog, maxUploadBytes int64) *Server {
	return &Server{Logger: l, Alerts: alerts, History: history, MaxUploadBytes: maxUploadBytes}
}

func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(corsHandler(opts.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.With(apimw.RateLimit(opts.SendRPM, opts.SendBurst)).Post("/send-alert", s.handleSendAlert)
	r.With(apimw.RequireKey(opts.HistoryKeys)).Get("/api/history", s.handleHistory)

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	})
}

func (s *Server) handleSendAlert(w http.ResponseWriter, r *http.Request) {
	if s.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(formMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, domain.AlertOutcome{Error: "Request body too large"})
			return
		}
		s.Logger.Warn("alert_bad_form", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, domain.AlertOutcome{Error: "Invalid form data"})
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	req := domain.AlertRequest{
		Latitude:  r.FormValue("latitude"),
		Longitude: r.FormValue("longitude"),
	}
	file, hdr, err := r.FormFile("video")
	if err == nil {
		defer file.Close()
		req.Clip = file
		req.ClipName = hdr.Filename
	}

	s.Logger.Info("alert_received",
		zap.String("latitude", req.Latitude),
		zap.String("longitude", req.Longitude),
		zap.String("video", videoName(hdr)),
	)

	// A client hanging up must not abort an alert that is half delivered.
	err = s.Alerts.Dispatch(context.WithoutCancel(r.Context()), req)
	out, status := alert.Outcome(err)
	writeJSON(w, status, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := repo.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, domain.AlertOutcome{Error: "invalid limit"})
			return
		}
		limit = n
	}
	recs, err := s.History.Recent(r.Context(), limit)
	if err != nil {
		s.Logger.Error("history_list_failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, domain.AlertOutcome{Error: "list error"})
		return
	}
	if recs == nil {
		recs = []domain.AlertRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func videoName(h *multipart.FileHeader) string {
	if h == nil {
		return "None"
	}
	return h.Filename
}
