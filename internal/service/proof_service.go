package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/vikoba/vikoba-backend/internal/repository/storage"
)

const (
	MaxProofSize   = 5 * 1024 * 1024 // 5MB
	MinProofWidth  = 50
	MinProofHeight = 50
	ThumbnailWidth = 200
	JPEGQuality    = 85

	// PresignExpiry is how long a proof view link stays valid
	PresignExpiry = 15 * time.Minute
)

var (
	ErrProofTooLarge           = errors.New("file too large. Maximum size is 5MB")
	ErrProofInvalidFormat      = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrProofTooSmall           = errors.New("image too small. Minimum 50x50 pixels")
	ErrProofInvalidData        = errors.New("invalid image data")
	ErrProofStorageUnavailable = errors.New("proof storage not configured")
)

// AllowedProofExtensions maps extensions to content types
var AllowedProofExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ProofUpload contains the stored paths for one proof of payment
type ProofUpload struct {
	Path          string `json:"path"`
	ThumbnailPath string `json:"thumbnailPath"`
}

// ProofService validates, processes, and stores proof-of-payment images
type ProofService struct {
	storage storage.ProofRepository
}

// NewProofService creates a new ProofService
func NewProofService(storage storage.ProofRepository) *ProofService {
	return &ProofService{storage: storage}
}

// IsEnabled indicates whether uploads are supported (storage configured)
func (s *ProofService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

func (s *ProofService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxProofSize {
		return nil, ErrProofTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedProofExtensions[ext]; !ok {
		return nil, ErrProofInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrProofInvalidData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinProofWidth || bounds.Dy() < MinProofHeight {
		return nil, ErrProofTooSmall
	}
	return img, nil
}

// Upload validates the image and stores the original plus a thumbnail.
// Both variants are re-encoded as JPEG.
func (s *ProofService) Upload(ctx context.Context, groupID, paymentID int32, data []byte, filename string) (*ProofUpload, error) {
	if !s.IsEnabled() {
		return nil, ErrProofStorageUnavailable
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	variants := []struct {
		name     string
		maxWidth int
	}{
		{"original", 0},
		{"thumb", ThumbnailWidth},
	}

	paths := make(map[string]string)
	for _, variant := range variants {
		processed := img
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode proof image: %w", err)
		}

		objectPath := storage.GenerateObjectPath(groupID, paymentID, variant.name, ".jpg")
		if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			s.cleanup(ctx, paths)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		paths[variant.name] = objectPath
	}

	return &ProofUpload{
		Path:          paths["original"],
		ThumbnailPath: paths["thumb"],
	}, nil
}

func (s *ProofService) cleanup(ctx context.Context, paths map[string]string) {
	for _, objectPath := range paths {
		_ = s.storage.Delete(ctx, objectPath)
	}
}

// ViewURL returns a short-lived presigned URL for a stored proof
func (s *ProofService) ViewURL(ctx context.Context, proofPath string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrProofStorageUnavailable
	}
	return s.storage.GeneratePresignedURL(ctx, proofPath, PresignExpiry)
}
