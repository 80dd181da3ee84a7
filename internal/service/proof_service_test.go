package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestProof creates a solid-color image of the given size and format
func createTestProof(width, height int, format string) ProofUpload {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 0, G: 128, B: 255, A: 255})
		}
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		png.Encode(&buf, img)
		return ProofUpload{Data: buf.Bytes(), Filename: "receipt.png"}
	default:
		jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
		return ProofUpload{Data: buf.Bytes(), Filename: "receipt.jpg"}
	}
}

func TestValidateProof(t *testing.T) {
	svc := NewProofService(nil, 0)

	tests := []struct {
		name    string
		proof   ProofUpload
		wantErr error
	}{
		{"valid jpeg", createTestProof(200, 150, "jpeg"), nil},
		{"valid png", createTestProof(120, 120, "png"), nil},
		{"too small", createTestProof(50, 500, "png"), ErrProofTooSmall},
		{"unsupported extension", ProofUpload{Data: createTestProof(200, 200, "png").Data, Filename: "receipt.gif"}, ErrInvalidProofFormat},
		{"not an image", ProofUpload{Data: []byte("%PDF-1.4"), Filename: "receipt.png"}, ErrInvalidProofData},
		{"too large", ProofUpload{Data: make([]byte, MaxProofSize+1), Filename: "receipt.jpg"}, ErrProofTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateProof(tt.proof)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProofStore_UploadsVariants(t *testing.T) {
	repo := testutil.NewMockProofRepository()
	svc := NewProofService(repo, time.Minute)
	loanID := uuid.New()

	ref, err := svc.Store(context.Background(), loanID, createTestProof(3000, 200, "png"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "proofs/"+loanID.String()+"/"))
	assert.True(t, strings.HasSuffix(ref, "/original.jpg"))
	assert.Equal(t, 2, repo.ObjectCount())

	original, _, err := image.Decode(bytes.NewReader(repo.Objects[ref]))
	require.NoError(t, err)
	assert.Equal(t, MaxProofWidth, original.Bounds().Dx())

	thumbRef := strings.TrimSuffix(ref, "original.jpg") + "thumb.jpg"
	thumb, _, err := image.Decode(bytes.NewReader(repo.Objects[thumbRef]))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, thumb.Bounds().Dx())
}

func TestProofStore_CleansUpOnUploadFailure(t *testing.T) {
	repo := testutil.NewMockProofRepository()
	repo.UploadFn = func(ctx context.Context, objectPath string) error {
		if strings.HasSuffix(objectPath, "thumb.jpg") {
			return errors.New("bucket unavailable")
		}
		return nil
	}
	svc := NewProofService(repo, time.Minute)

	_, err := svc.Store(context.Background(), uuid.New(), createTestProof(200, 200, "jpeg"))
	assert.Error(t, err)
	assert.Equal(t, 0, repo.ObjectCount())
	assert.Len(t, repo.Deleted, 1)
}

func TestProofStore_NotConfigured(t *testing.T) {
	svc := NewProofService(nil, 0)
	_, err := svc.Store(context.Background(), uuid.New(), createTestProof(200, 200, "jpeg"))
	assert.ErrorIs(t, err, ErrProofStorageNotConfigured)
}

func TestProofDelete_RemovesBothVariants(t *testing.T) {
	repo := testutil.NewMockProofRepository()
	svc := NewProofService(repo, time.Minute)

	ref, err := svc.Store(context.Background(), uuid.New(), createTestProof(200, 200, "jpeg"))
	require.NoError(t, err)

	svc.Delete(context.Background(), ref)
	assert.Equal(t, 0, repo.ObjectCount())
	assert.Len(t, repo.Deleted, 2)
}

func TestPresignedURLs(t *testing.T) {
	repo := testutil.NewMockProofRepository()
	svc := NewProofService(repo, 5*time.Minute)
	loanID := uuid.New()

	ref, err := svc.Store(context.Background(), loanID, createTestProof(200, 200, "jpeg"))
	require.NoError(t, err)

	urls, err := svc.PresignedURLs(context.Background(), loanID, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, urls.Ref)
	assert.Contains(t, urls.OriginalURL, "original.jpg")
	assert.Contains(t, urls.ThumbnailURL, "thumb.jpg")
	assert.Contains(t, urls.OriginalURL, "expires=300")

	_, err = svc.PresignedURLs(context.Background(), uuid.New(), ref)
	assert.ErrorIs(t, err, domain.ErrProofNotFound)

	_, err = svc.PresignedURLs(context.Background(), loanID, "proofs/"+loanID.String()+"/../x/original.jpg")
	assert.ErrorIs(t, err, domain.ErrProofNotFound)
}
