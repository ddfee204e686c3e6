package image

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/medbook/bookd/internal/platform/apperror"
	"github.com/medbook/bookd/internal/platform/storage"
)

type Service struct {
	images Repository
	store  storage.Store
}

func NewService(images Repository, store storage.Store) *Service {
	return &Service{images: images, store: store}
}

// UploadInput describes one incoming file.
type UploadInput struct {
	OwnerType   string
	OwnerID     uuid.UUID
	Kind        string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload stores the file in the blob backend and records its ownership.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Image, error) {
	if !ownerTypes[in.OwnerType] {
		return nil, apperror.Errorf(apperror.BadRequest, "unknown owner type: %s", in.OwnerType)
	}
	if in.Kind == "" {
		in.Kind = "gallery"
	}
	if !kinds[in.Kind] {
		return nil, apperror.Errorf(apperror.BadRequest, "unknown image kind: %s", in.Kind)
	}
	if in.OwnerID == uuid.Nil {
		return nil, apperror.E(apperror.BadRequest, "owner_id is required")
	}

	objectName := fmt.Sprintf("%s/%s/%s%s", in.OwnerType, in.OwnerID, uuid.New(), filepath.Ext(in.Filename))
	path, err := s.store.Put(ctx, objectName, in.Body, in.Size, in.ContentType)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "store image", err)
	}

	img := &Image{
		OwnerType: in.OwnerType,
		OwnerID:   in.OwnerID,
		Kind:      in.Kind,
		Path:      path,
	}
	if err := s.images.Create(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]*Image, error) {
	if !ownerTypes[ownerType] {
		return nil, apperror.Errorf(apperror.BadRequest, "unknown owner type: %s", ownerType)
	}
	return s.images.ListByOwner(ctx, ownerType, ownerID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.images.Delete(ctx, id)
}
