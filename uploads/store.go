package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRejected marks an upload the store refused: missing file, empty name,
// extension outside the allowlist, or an IO failure while persisting. All of
// them surface to the user as a validation-style message, never a 500.
var ErrRejected = errors.New("upload rejected")

// Reason returns the user-facing part of a rejection error.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimPrefix(err.Error(), ErrRejected.Error()+": ")
}

// Store persists uploaded images into a single directory and hands back the
// stored filename as the reference to keep on the owning record.
type Store struct {
	dir     string
	allowed map[string]struct{}
	exts    []string // allowlist in configured order, for messages
	logger  *zap.Logger
}

// NewStore creates the upload directory if absent and returns a Store
// accepting only the given extensions (compared case-insensitively).
func NewStore(dir string, allowedExts []string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	allowed := make(map[string]struct{}, len(allowedExts))
	exts := make([]string, 0, len(allowedExts))
	for _, ext := range allowedExts {
		ext = strings.ToLower(ext)
		if _, ok := allowed[ext]; ok {
			continue
		}
		allowed[ext] = struct{}{}
		exts = append(exts, ext)
	}
	return &Store{dir: dir, allowed: allowed, exts: exts, logger: logger}, nil
}

// Allowed reports whether the filename carries an allowlisted extension.
func (s *Store) Allowed(filename string) bool {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return false
	}
	_, ok := s.allowed[strings.ToLower(ext)]
	return ok
}

// Save validates and persists one uploaded file, returning the stored
// filename. Every stored name is prefixed with a 128-bit random hex token, so
// repeated uploads of the same file never collide.
func (s *Store) Save(header *multipart.FileHeader) (string, error) {
	if header == nil || header.Filename == "" {
		return "", fmt.Errorf("%w: no file selected", ErrRejected)
	}
	if !s.Allowed(header.Filename) {
		return "", fmt.Errorf("%w: allowed image types are - %s", ErrRejected, strings.Join(s.exts, ", "))
	}

	name := sanitizeFilename(header.Filename)
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	stored := token + "_" + name

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("%w: could not read uploaded file", ErrRejected)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		s.logger.Error("Failed to create upload file", zap.String("name", stored), zap.Error(err))
		return "", fmt.Errorf("%w: could not save uploaded file", ErrRejected)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		s.logger.Error("Failed to write upload file", zap.String("name", stored), zap.Error(err))
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("%w: could not save uploaded file", ErrRejected)
	}

	return stored, nil
}

// Remove deletes a stored file by reference. Best effort: cleanup of replaced
// images is not transactional with the database commit, so a failure here is
// logged and otherwise ignored.
func (s *Store) Remove(stored string) {
	if stored == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(stored))); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove stored file", zap.String("name", stored), zap.Error(err))
	}
}

// Dir returns the directory stored files live in.
func (s *Store) Dir() string {
	return s.dir
}

// sanitizeFilename strips path components and anything outside a conservative
// character set, keeping the extension intact.
func sanitizeFilename(filename string) string {
	base := filepath.Base(filepath.ToSlash(filename))

	var b strings.Builder
	for _, ch := range base {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '.' || ch == '-' || ch == '_':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		cleaned = "upload"
	}
	return cleaned
}
