package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"github.com/wadjakorntonsri/studio-cms/pkg/apperr"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

type MediaServiceOptions struct {
	MaxBytes        int64
	ThumbnailWidth  int
	ThumbnailHeight int
	Logger          *logger.Logger
}

// MediaService validates uploads and stores them content addressed.
type MediaService struct {
	objects ports.ObjectStore
	catalog domain.Catalog
	opts    MediaServiceOptions
	log     *logger.Logger
}

func NewMediaService(objects ports.ObjectStore, catalog domain.Catalog, opts MediaServiceOptions) *MediaService {
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = 480
	}
	if opts.ThumbnailHeight <= 0 {
		opts.ThumbnailHeight = 480
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &MediaService{objects: objects, catalog: catalog, opts: opts, log: log}
}

func (s *MediaService) Upload(ctx context.Context, collection string, file ports.Upload) (*domain.Asset, error) {
	def, ok := s.catalog.Lookup(collection)
	if !ok {
		return nil, apperr.Newf(apperr.CodeUnknownCollection, "unknown collection %q", collection)
	}
	if len(file.Data) == 0 {
		return nil, apperr.New(apperr.CodeUploadRejected, "empty file")
	}
	if s.opts.MaxBytes > 0 && int64(len(file.Data)) > s.opts.MaxBytes {
		return nil, apperr.Newf(apperr.CodeUploadRejected, "file exceeds %d bytes", s.opts.MaxBytes)
	}

	mtype := mimetype.Detect(file.Data)
	kind, ok := mediaKind(mtype.String())
	if !ok {
		return nil, apperr.Newf(apperr.CodeUploadRejected, "unsupported file type %s", mtype.String())
	}
	if !def.Accepts(kind) {
		return nil, apperr.Newf(apperr.CodeUploadRejected, "%s does not accept %s files", collection, kind)
	}

	sum := sha256.Sum256(file.Data)
	hash := hex.EncodeToString(sum[:])
	dir := fmt.Sprintf("%s/%s", collection, hash[:2])

	original := fmt.Sprintf("%s/%s%s", dir, hash, mtype.Extension())
	url, created, err := s.objects.Upload(ctx, original, file.Data)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to store upload")
	}

	asset := &domain.Asset{
		URL:         url,
		ContentType: mtype.String(),
		Size:        int64(len(file.Data)),
		Hash:        hash,
	}
	if created {
		asset.Created = append(asset.Created, original)
	}

	if kind == domain.MediaImage {
		thumb, err := s.thumbnail(file.Data)
		if err != nil {
			s.log.Warn("thumbnail generation failed", "file", file.Filename, "type", asset.ContentType, "error", err)
		} else {
			thumbPath := fmt.Sprintf("%s/%s_thumb.jpg", dir, hash)
			thumbURL, created, err := s.objects.Upload(ctx, thumbPath, thumb)
			if err != nil {
				if derr := s.Discard(ctx, asset); derr != nil {
					s.log.Warn("failed to discard partial upload", "hash", hash, "error", derr)
				}
				return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to store thumbnail")
			}
			asset.ThumbnailURL = thumbURL
			if created {
				asset.Created = append(asset.Created, thumbPath)
			}
		}
	}

	s.log.Info("media stored", "collection", collection, "file", file.Filename, "type", asset.ContentType, "size", asset.Size)
	return asset, nil
}

// Discard deletes the objects the upload created. Objects shared with an
// earlier upload of the same bytes stay in place.
func (s *MediaService) Discard(ctx context.Context, asset *domain.Asset) error {
	if asset == nil {
		return nil
	}
	var errs []error
	for _, p := range asset.Created {
		if err := s.objects.Delete(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", p, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.log.Debug("media discarded", "hash", asset.Hash, "objects", len(asset.Created))
	return nil
}

func (s *MediaService) thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Fit(img, s.opts.ThumbnailWidth, s.opts.ThumbnailHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func mediaKind(contentType string) (domain.MediaKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return domain.MediaImage, true
	case strings.HasPrefix(contentType, "video/"):
		return domain.MediaVideo, true
	default:
		return "", false
	}
}

var _ ports.MediaService = (*MediaService)(nil)
