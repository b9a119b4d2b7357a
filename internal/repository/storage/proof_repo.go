package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// ProofRepository defines the interface for proof-of-payment object storage
type ProofRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// GenerateObjectPath creates a unique object path for a payment proof.
// Layout: <groupID>/payments/<paymentID>/<uuid>_<variant><ext>
func GenerateObjectPath(groupID int32, paymentID int32, variant string, ext string) string {
	filename := fmt.Sprintf("%s_%s%s", uuid.New().String(), variant, ext)
	return path.Join(fmt.Sprintf("%d", groupID), "payments", fmt.Sprintf("%d", paymentID), filename)
}
