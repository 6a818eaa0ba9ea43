// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/hamed0406/alertrelay/internal/config"
)

func main() {
	_ = godotenv.Load()

	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()

	for name, v := range map[string]string{
		"WHATSAPP_PHONE_NUMBER_ID":  cfg.WhatsApp.PhoneNumberID,
		"WHATSAPP_ACCESS_TOKEN":     cfg.WhatsApp.AccessToken,
		"WHATSAPP_RECIPIENT_NUMBER": cfg.WhatsApp.Recipient,
	} {
		if v == "" {
			fail(name + " is empty (every alert will fail with a configuration error).")
		}
	}
	if cfg.WhatsApp.Complete() {
		ok("WhatsApp credentials present")
	}

	if err := checkWritable(cfg.UploadDir); err != nil {
		fail("UPLOAD_DIR " + cfg.UploadDir + " not writable: " + err.Error())
	} else {
		ok("UPLOAD_DIR=" + cfg.UploadDir)
	}

	if cfg.TranscodeEnabled {
		if p, err := exec.LookPath(cfg.FFmpegPath); err != nil {
			fail("TRANSCODE_ENABLED but ffmpeg not found at " + cfg.FFmpegPath)
		} else {
			ok("ffmpeg=" + p)
		}
	} else {
		warn("TRANSCODE_ENABLED off — clips are forwarded as WebM.")
	}

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty — alert history is kept in memory only.")
	} else {
		ok("DATABASE_URL present")
	}

	if len(cfg.HistoryAPIKeys) == 0 {
		warn("HISTORY_API_KEYS empty — /api/history is open.")
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}
