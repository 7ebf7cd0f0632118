package document

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reviewrouter/internal/blobstore"
)

// Repository loads and persists the configuration document.
//
// Read failures fall back to the default document: a transient store outage
// must not take the whole service down with it. Write failures always
// propagate, otherwise an admin edit could vanish silently.
type Repository struct {
	store  blobstore.Store
	logger *zap.Logger
}

// NewRepository wires a repository over the given store.
func NewRepository(store blobstore.Store, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: store, logger: logger}
}

// Load returns the stored document merged against defaults. Missing or
// unreadable blobs yield the default document.
func (r *Repository) Load(ctx context.Context) Document {
	var raw Raw
	found, err := r.store.GetJSON(ctx, ConfigKey, &raw)
	if err != nil {
		r.logger.Warn("config read failed, falling back to defaults", zap.Error(err))
		return Defaults()
	}
	if !found {
		return Defaults()
	}
	return Merge(raw, Defaults())
}

// Save persists the whole document under the fixed key, stamping the blob
// metadata with the document's own updatedAt.
func (r *Repository) Save(ctx context.Context, doc Document) error {
	updatedAt := time.Now().UTC().Format(time.RFC3339)
	if doc.UpdatedAt != nil && *doc.UpdatedAt != "" {
		updatedAt = *doc.UpdatedAt
	} else {
		doc.UpdatedAt = &updatedAt
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config document: %w", err)
	}
	if err := r.store.Set(ctx, ConfigKey, data, blobstore.SetOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"updatedAt": updatedAt},
	}); err != nil {
		return fmt.Errorf("failed to persist config document: %w", err)
	}
	return nil
}

// GenerateUserID mints an opaque per-tenant identifier. IDs are never
// reused; a fresh one is generated whenever the admin email changes.
func GenerateUserID() string {
	return "usr_" + uuid.New().String()
}

// NormalizeEmail canonicalizes an email for change detection.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
