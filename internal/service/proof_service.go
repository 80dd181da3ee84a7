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

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/repository/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	MaxProofSize     = 10 * 1024 * 1024 // 10MB
	MinProofWidth    = 100
	MinProofHeight   = 100
	MaxProofWidth    = 2400
	ThumbnailWidth   = 320
	JPEGQuality      = 85
	DefaultURLExpiry = 15 * time.Minute

	originalVariant  = "original"
	thumbnailVariant = "thumb"
)

var (
	ErrProofTooLarge             = errors.New("file too large. Maximum size is 10MB")
	ErrInvalidProofFormat        = errors.New("invalid format. Supported: JPEG, PNG")
	ErrProofTooSmall             = errors.New("image too small. Minimum 100x100 pixels")
	ErrInvalidProofData          = errors.New("invalid image data")
	ErrProofStorageNotConfigured = errors.New("proof storage not configured")
)

// AllowedProofExtensions maps extensions to content types
var AllowedProofExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ProofUpload is a payment proof file as received from the client
type ProofUpload struct {
	Data     []byte
	Filename string
}

// ProofURLs contains presigned URLs for a stored proof
type ProofURLs struct {
	Ref          string    `json:"ref"`
	OriginalURL  string    `json:"originalUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ProofService validates, normalizes and stores payment proof images.
// A proof reference is the object path of the normalized original; the
// thumbnail lives next to it.
type ProofService struct {
	storage   storage.ProofRepository
	urlExpiry time.Duration
}

// NewProofService creates a new ProofService
func NewProofService(storage storage.ProofRepository, urlExpiry time.Duration) *ProofService {
	if urlExpiry <= 0 {
		urlExpiry = DefaultURLExpiry
	}
	return &ProofService{storage: storage, urlExpiry: urlExpiry}
}

// IsEnabled indicates whether proof storage is configured
func (s *ProofService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// ValidateProof validates proof format, size and dimensions
func (s *ProofService) ValidateProof(proof ProofUpload) error {
	_, err := s.validateAndDecode(proof)
	return err
}

func (s *ProofService) validateAndDecode(proof ProofUpload) (image.Image, error) {
	if len(proof.Data) > MaxProofSize {
		return nil, ErrProofTooLarge
	}

	ext := strings.ToLower(filepath.Ext(proof.Filename))
	if _, ok := AllowedProofExtensions[ext]; !ok {
		return nil, ErrInvalidProofFormat
	}

	// Phone photos carry EXIF orientation; normalize before measuring
	img, err := imaging.Decode(bytes.NewReader(proof.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidProofData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinProofWidth || bounds.Dy() < MinProofHeight {
		return nil, ErrProofTooSmall
	}

	return img, nil
}

// Store uploads the normalized original and a thumbnail and returns the proof reference
func (s *ProofService) Store(ctx context.Context, loanID uuid.UUID, proof ProofUpload) (string, error) {
	if !s.IsEnabled() {
		return "", ErrProofStorageNotConfigured
	}

	img, err := s.validateAndDecode(proof)
	if err != nil {
		return "", err
	}

	base := fmt.Sprintf("proofs/%s/%s", loanID, uuid.New())

	variants := []struct {
		name     string
		maxWidth int
	}{
		{originalVariant, MaxProofWidth},
		{thumbnailVariant, ThumbnailWidth},
	}

	var uploaded []string
	for _, variant := range variants {
		processed := img
		if img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			s.deletePaths(ctx, uploaded)
			return "", fmt.Errorf("failed to encode proof: %w", err)
		}

		objectPath := variantPath(base, variant.name)
		if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			s.deletePaths(ctx, uploaded)
			return "", fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		uploaded = append(uploaded, objectPath)
	}

	return variantPath(base, originalVariant), nil
}

// Delete removes every variant of a stored proof. Errors are logged, not returned.
func (s *ProofService) Delete(ctx context.Context, ref string) {
	if !s.IsEnabled() || ref == "" {
		return
	}
	base, ok := basePath(ref)
	if !ok {
		return
	}
	s.deletePaths(ctx, []string{variantPath(base, originalVariant), variantPath(base, thumbnailVariant)})
}

// PresignedURLs returns short-lived URLs for a proof belonging to loanID
func (s *ProofService) PresignedURLs(ctx context.Context, loanID uuid.UUID, ref string) (*ProofURLs, error) {
	if !s.IsEnabled() {
		return nil, ErrProofStorageNotConfigured
	}
	base, ok := basePath(ref)
	if !ok || !strings.HasPrefix(ref, fmt.Sprintf("proofs/%s/", loanID)) {
		return nil, domain.ErrProofNotFound
	}

	original, err := s.storage.GeneratePresignedURL(ctx, ref, s.urlExpiry)
	if err != nil {
		return nil, err
	}
	thumb, err := s.storage.GeneratePresignedURL(ctx, variantPath(base, thumbnailVariant), s.urlExpiry)
	if err != nil {
		return nil, err
	}

	return &ProofURLs{
		Ref:          ref,
		OriginalURL:  original,
		ThumbnailURL: thumb,
		ExpiresAt:    time.Now().Add(s.urlExpiry).UTC(),
	}, nil
}

func (s *ProofService) deletePaths(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.storage.Delete(ctx, p); err != nil {
			log.Warn().Err(err).Str("object", p).Msg("Failed to delete proof object")
		}
	}
}

func variantPath(base, variant string) string {
	return base + "/" + variant + ".jpg"
}

// basePath strips the variant file name from a proof reference
func basePath(ref string) (string, bool) {
	suffix := "/" + originalVariant + ".jpg"
	if !strings.HasSuffix(ref, suffix) || strings.Contains(ref, "..") {
		return "", false
	}
	return strings.TrimSuffix(ref, suffix), true
}
