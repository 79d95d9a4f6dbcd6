package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
)

// Uploader is the slice of the object storage client this service needs.
type Uploader interface {
	Enabled() bool
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// Service stores product imagery and hands back public URLs.
type Service interface {
	UploadImage(ctx context.Context, fact identity.RoleFact, input UploadInput) (*UploadResult, error)
}

// UploadInput is one file to store.
type UploadInput struct {
	Filename string
	Data     []byte
}

// UploadResult carries the public URL of the stored object.
type UploadResult struct {
	URL string `json:"url"`
}

type service struct {
	uploader Uploader
	cfg      config.MediaConfig
	keyGen   func() string
}

// NewService constructs the media service.
func NewService(uploader Uploader, cfg config.MediaConfig) (Service, error) {
	if uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	return &service{uploader: uploader, cfg: cfg, keyGen: uuid.NewString}, nil
}

func (s *service) UploadImage(ctx context.Context, fact identity.RoleFact, input UploadInput) (*UploadResult, error) {
	if !fact.IsEmployee() || (!fact.IsStoreManager && !fact.IsRegionManager) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "image upload requires a manager role")
	}
	if len(input.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no file provided")
	}
	if maxBytes := s.cfg.MaxUploadMB * 1024 * 1024; maxBytes > 0 && len(input.Data) > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the upload size limit").
			WithDetails(map[string]any{"max_mb": s.cfg.MaxUploadMB})
	}
	if !s.uploader.Enabled() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "object storage is not configured")
	}

	// The content decides the type, not the client-supplied filename.
	detected := mimetype.Detect(input.Data)
	if !s.allowed(detected.String()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid file type, only images are allowed").
			WithDetails(map[string]any{"detected": detected.String()})
	}

	key := "products/" + s.keyGen() + detected.Extension()
	url, err := s.uploader.Upload(ctx, key, bytes.NewReader(input.Data), detected.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage: upload image")
	}
	return &UploadResult{URL: url}, nil
}

func (s *service) allowed(mime string) bool {
	for _, candidate := range s.cfg.AllowedMIMETypes() {
		if strings.EqualFold(candidate, mime) {
			return true
		}
	}
	return false
}
