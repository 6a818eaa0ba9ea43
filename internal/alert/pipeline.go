// Package alert drives a single emergency alert from the uploaded request to
// the messages delivered by the provider.
package alert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/alertrelay/internal/domain"
	"github.com/hamed0406/alertrelay/internal/media"
	"github.com/hamed0406/alertrelay/internal/notify"
	"github.com/hamed0406/alertrelay/internal/repo"
	"github.com/hamed0406/alertrelay/internal/transcode"
)

const VideoCaption = "Emergency video recording"

// ClipStore is the part of media.Store the pipeline needs.
type ClipStore interface {
	Persist(blob io.Reader, declaredFilename string) (domain.StoredClip, error)
	Cleanup(clips ...domain.StoredClip) error
}

type Option func(*Pipeline)

// WithTranscoder enables conversion to MP4 before upload.
func WithTranscoder(t transcode.Transcoder) Option {
	return func(p *Pipeline) { p.transcoder = t }
}

// WithHistory records every dispatch attempt in h.
func WithHistory(h repo.AlertLog) Option {
	return func(p *Pipeline) { p.history = h }
}

// Pipeline holds only read-only configuration and collaborators, so one
// instance serves concurrent requests.
type Pipeline struct {
	creds      domain.Credentials
	clips      ClipStore
	messenger  notify.Messenger
	transcoder transcode.Transcoder
	history    repo.AlertLog
	log        *zap.Logger
}

func New(creds domain.Credentials, clips ClipStore, messenger notify.Messenger, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{creds: creds, clips: clips, messenger: messenger, log: log}
	for _, o := range opts {
		o(p)
	}
	return p
}

// run is the per-request state of one dispatch.
type run struct {
	stage   Stage
	clips   []domain.StoredClip
	final   domain.StoredClip
	mediaID string
}

// Dispatch executes the pipeline. It returns nil on success or an *Error
// describing the first failing stage; earlier deliveries are not undone.
func (p *Pipeline) Dispatch(ctx context.Context, req domain.AlertRequest) error {
	start := time.Now()
	r := &run{}
	err := p.dispatch(ctx, req, r)

	failed := r.stage
	r.stage = StageCleaningUp
	if cerr := p.clips.Cleanup(r.clips...); cerr != nil {
		p.log.Warn("alert_cleanup_failed", zap.Error(cerr))
	}
	r.stage = StageDone

	if err != nil {
		p.log.Warn("alert_failed",
			zap.String("stage", failed.String()),
			zap.String("error", err.Error()),
			zap.Duration("elapsed", time.Since(start)),
		)
	} else {
		p.log.Info("alert_sent",
			zap.String("media_id", r.mediaID),
			zap.String("format", string(r.final.Format)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	p.record(ctx, req, r, failed, err)
	return err
}

func (p *Pipeline) dispatch(ctx context.Context, req domain.AlertRequest, r *run) error {
	r.stage = StageValidating
	if err := validate(req); err != nil {
		return err
	}
	if !p.creds.Complete() {
		return &Error{Kind: KindConfiguration, Stage: StageValidating, Msg: MsgNotConfigured}
	}

	r.stage = StagePersisting
	clip, err := p.clips.Persist(req.Clip, req.ClipName)
	if err != nil {
		if errors.Is(err, media.ErrInvalidFileType) {
			return validation(MsgInvalidFileType)
		}
		return &Error{Kind: KindStorage, Stage: StagePersisting, Msg: err.Error(), Err: err}
	}
	r.clips = append(r.clips, clip)
	r.final = clip
	p.log.Info("alert_clip_stored", zap.String("path", clip.Path))

	if p.transcoder != nil {
		r.stage = StageTranscoding
		out := media.Derive(clip, domain.FormatMP4)
		r.clips = append(r.clips, out)
		if !p.transcoder.Transcode(ctx, clip.Path, out.Path) {
			return &Error{Kind: KindConversion, Stage: StageTranscoding, Msg: MsgConversionFailed}
		}
		r.final = out
	}

	r.stage = StageSendingText
	if _, err := p.messenger.SendText(ctx, p.creds.Recipient, LocationMessage(req.Latitude, req.Longitude)); err != nil {
		return upstream(StageSendingText, msgTextFailedPrefix, err)
	}

	r.stage = StageUploadingMedia
	mediaID, err := p.upload(ctx, r.final)
	if err != nil {
		return err
	}
	r.mediaID = mediaID

	r.stage = StageSendingMediaMessage
	if _, err := p.messenger.SendMediaMessage(ctx, p.creds.Recipient, mediaID, VideoCaption); err != nil {
		return upstream(StageSendingMediaMessage, msgVideoFailedPrefix, err)
	}
	return nil
}

func (p *Pipeline) upload(ctx context.Context, clip domain.StoredClip) (string, error) {
	f, err := os.Open(clip.Path)
	if err != nil {
		return "", &Error{Kind: KindStorage, Stage: StageUploadingMedia, Msg: err.Error(), Err: err}
	}
	defer f.Close()

	id, err := p.messenger.UploadMedia(ctx, filepath.Base(clip.Path), f, clip.Format.MIMEType())
	if err != nil {
		return "", upstream(StageUploadingMedia, msgUploadFailedPrefix, err)
	}
	return id, nil
}

// record writes the history row. A failure here never changes the outcome.
func (p *Pipeline) record(ctx context.Context, req domain.AlertRequest, r *run, failed Stage, err error) {
	if p.history == nil {
		return
	}
	rec := &domain.AlertRecord{
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Success:    err == nil,
		ClipFormat: r.final.Format,
		MediaID:    r.mediaID,
		CreatedAt:  time.Now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
		rec.FailedStage = failed.String()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if herr := p.history.Append(ctx, rec); herr != nil {
		p.log.Warn("alert_history_failed", zap.Error(herr))
	}
}

func validate(req domain.AlertRequest) *Error {
	if strings.TrimSpace(req.Latitude) == "" || strings.TrimSpace(req.Longitude) == "" {
		return validation(MsgLocationMissing)
	}
	if req.Clip == nil || req.ClipName == "" {
		return validation(MsgVideoMissing)
	}
	if !media.AllowedFile(req.ClipName) {
		return validation(MsgInvalidFileType)
	}
	return nil
}

func upstream(stage Stage, prefix string, err error) *Error {
	detail := err.Error()
	var ue *notify.UpstreamError
	if errors.As(err, &ue) {
		detail = ue.Detail()
	}
	return &Error{Kind: KindUpstream, Stage: stage, Msg: prefix + detail, Err: err}
}

// LocationMessage is the text alert sent ahead of the video.
func LocationMessage(lat, lon string) string {
	return fmt.Sprintf(
		"🚨 I am in danger, please help me! My location is [%s, %s].\n\nGoogle Maps: https://www.google.com/maps?q=%s,%s",
		lat, lon, lat, lon,
	)
}
