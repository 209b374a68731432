package media

import (
	"context"
	"encoding/base64"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"relay/infrastructure"
)

type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindProfile Kind = "profile"
)

var folders = map[Kind]string{
	KindImage:   "chat-images",
	KindVideo:   "chat-videos",
	KindProfile: "profile-pics",
}

//go:generate mockgen -destination=mocks/uploader.go -package=mocks relay/internal/media Uploader

// Uploader stores a media payload and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, payload string, kind Kind) (string, error)
}

// DiskStore keeps uploads under a local directory that is served at baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) *DiskStore {
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload accepts a base64 payload, optionally wrapped in a data URL.
func (s *DiskStore) Upload(ctx context.Context, payload string, kind Kind) (string, error) {
	folder, ok := folders[kind]
	if !ok {
		return "", errors.Wrapf(infrastructure.ErrInvalidInput, "unknown media kind %q", kind)
	}
	data, err := Decode(payload)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	contentType := http.DetectContentType(data)
	if !matchesKind(contentType, kind) {
		return "", errors.Wrapf(infrastructure.ErrInvalidInput, "payload of type %s is not %s", contentType, kind)
	}

	name := uuid.NewString() + extension(contentType)
	dir := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "media: create folder")
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", errors.Wrap(err, "media: write file")
	}
	return s.baseURL + "/" + folder + "/" + name, nil
}

// Handler serves stored files.
func (s *DiskStore) Handler() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}

// Decode strips an optional data URL prefix and decodes the base64 body.
func Decode(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		i := strings.Index(payload, ",")
		if i < 0 || !strings.Contains(payload[:i], ";base64") {
			return nil, errors.Wrap(infrastructure.ErrInvalidInput, "malformed data URL")
		}
		payload = payload[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrapf(infrastructure.ErrInvalidInput, "decode media: %v", err)
	}
	if len(data) == 0 {
		return nil, errors.Wrap(infrastructure.ErrInvalidInput, "empty media payload")
	}
	return data, nil
}

func matchesKind(contentType string, kind Kind) bool {
	switch kind {
	case KindVideo:
		return strings.HasPrefix(contentType, "video/")
	default:
		return strings.HasPrefix(contentType, "image/")
	}
}

func extension(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ".bin"
	}
	return exts[0]
}
