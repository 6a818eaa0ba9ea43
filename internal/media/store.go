// Package media keeps uploaded recordings on local disk for the lifetime of
// a single alert.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/hamed0406/alertrelay/internal/domain"
)

const filePrefix = "emergency_"

var ErrInvalidFileType = errors.New("invalid file type")

var allowedExt = map[string]bool{"webm": true, "mp4": true, "avi": true, "mov": true}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates dir if it does not exist yet.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

func (s *Store) Dir() string { return s.dir }

// AllowedFile reports whether name carries one of the accepted video extensions.
func AllowedFile(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	return allowedExt[strings.ToLower(name[i+1:])]
}

// Persist writes blob into the upload directory. The declared filename only
// gates the extension check; the recording is always stored as .webm.
func (s *Store) Persist(blob io.Reader, declaredFilename string) (domain.StoredClip, error) {
	if !AllowedFile(declaredFilename) {
		return domain.StoredClip{}, ErrInvalidFileType
	}

	path := filepath.Join(s.dir, s.newName(domain.FormatWebM))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return domain.StoredClip{}, err
	}
	if _, err := io.Copy(f, blob); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return domain.StoredClip{}, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return domain.StoredClip{}, err
	}
	return domain.StoredClip{Path: path, Format: domain.FormatWebM}, nil
}

// Derive returns the sibling clip of c with the given format. Nothing is
// written to disk.
func Derive(c domain.StoredClip, f domain.ClipFormat) domain.StoredClip {
	base := strings.TrimSuffix(c.Path, filepath.Ext(c.Path))
	return domain.StoredClip{Path: base + "." + string(f), Format: f}
}

// Remove deletes path. A file that is already gone is not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Cleanup removes every clip and returns the combined failures. Callers are
// expected to log and discard the result.
func (s *Store) Cleanup(clips ...domain.StoredClip) error {
	var err error
	for _, c := range clips {
		err = multierr.Append(err, s.Remove(c.Path))
	}
	return err
}

// newName: emergency_<YYYYMMDD_HHMMSS>_<8 hex>.<ext>
func (s *Store) newName(f domain.ClipFormat) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("%s%s_%s.%s", filePrefix, s.now().Format("20060102_150405"), suffix, f)
	return unsafeChars.ReplaceAllString(name, "")
}
