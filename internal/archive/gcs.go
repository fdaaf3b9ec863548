// Package archive writes user snapshots to Cloud Storage before a data reset.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"github.com/focusnest/seeding-service/internal/journal"
)

// GCS writes snapshots as JSON objects under archives/{userID}/.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a Cloud Storage client for bucket.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Archive uploads snap and returns its gs:// location.
func (g *GCS) Archive(ctx context.Context, snap journal.Snapshot) (string, error) {
	path := ObjectPath(snap.UserID, snap.ExportedAt)

	w := g.client.Bucket(g.bucket).Object(path).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{"user_id": snap.UserID}

	if err := Encode(w, snap); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, path), nil
}

// Close closes the storage client
func (g *GCS) Close() error {
	return g.client.Close()
}

// ObjectPath names the archive object for a user at the given instant.
func ObjectPath(userID string, at time.Time) string {
	return fmt.Sprintf("archives/%s/%s.json", userID, at.UTC().Format("20060102T150405.000000000Z"))
}

// Encode writes snap as indented JSON.
func Encode(w io.Writer, snap journal.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
