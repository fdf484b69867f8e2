package converter

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/nconklindev/tabula/internal/storage"
	"github.com/nconklindev/tabula/internal/types"
)

// ErrNoUser indicates a save was attempted without a signed-in user.
var ErrNoUser = errors.New("no user signed in; saving is disabled")

// Saver is the object-storage collaborator converted output is handed to.
type Saver interface {
	Put(ctx context.Context, data []byte, name string, meta storage.Metadata) (string, error)
}

// Save stores a conversion result for userID and returns the file id.
func Save(ctx context.Context, saver Saver, userID string, result *types.ConversionResult, now time.Time) (string, error) {
	if userID == "" {
		return "", ErrNoUser
	}

	meta := storage.Metadata{
		UserID:         userID,
		OriginalName:   filepath.Base(result.InputFile),
		ConversionType: ConversionType(result.SourceFormat, result.TargetFormat),
		ConvertedAt:    now.UTC(),
	}

	return saver.Put(ctx, result.Data, SaveName(result.TargetFormat, now), meta)
}
