package alert

// Stage is a step of the dispatch state machine. Stages only move forward;
// a failure jumps straight to StageCleaningUp.
type Stage int

const (
	StageValidating Stage = iota
	StagePersisting
	StageTranscoding
	StageSendingText
	StageUploadingMedia
	StageSendingMediaMessage
	StageCleaningUp
	StageDone
)

var stageNames = [...]string{
	"validating",
	"persisting",
	"transcoding",
	"sending_text",
	"uploading_media",
	"sending_media_message",
	"cleaning_up",
	"done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}
