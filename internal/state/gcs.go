// File: internal/state/gcs.go
package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSBackend keeps state in a Cloud Storage object and uses generation
// preconditions so two concurrent applies cannot overwrite each other.
type GCSBackend struct {
	client *gcpstorage.Client
	bucket string
	key    string
	logger *slog.Logger
}

func NewGCSBackend(client *gcpstorage.Client, bucket, prefix string, logger *slog.Logger) *GCSBackend {
	return &GCSBackend{
		client: client,
		bucket: bucket,
		key:    objectKey(prefix),
		logger: logger,
	}
}

func (b *GCSBackend) Describe() string {
	return fmt.Sprintf("gs://%s/%s", b.bucket, b.key)
}

func (b *GCSBackend) Load(ctx context.Context) (*State, error) {
	b.logger.Debug("Loading state", "location", b.Describe())

	r, err := b.client.Bucket(b.bucket).Object(b.key).NewReader(ctx)
	if errors.Is(err, gcpstorage.ErrObjectNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening state object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading state object: %w", err)
	}

	s, err := Decode(data)
	if err != nil {
		return nil, err
	}
	s.token = strconv.FormatInt(r.Attrs.Generation, 10)
	return s, nil
}

func (b *GCSBackend) Save(ctx context.Context, s *State) error {
	s.prepareSave(time.Now())
	data, err := Encode(s)
	if err != nil {
		return err
	}

	obj := b.client.Bucket(b.bucket).Object(b.key)
	if s.token == "" {
		obj = obj.If(gcpstorage.Conditions{DoesNotExist: true})
	} else {
		generation, err := strconv.ParseInt(s.token, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid state generation %q: %w", s.token, err)
		}
		obj = obj.If(gcpstorage.Conditions{GenerationMatch: generation})
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/yaml"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("error writing state object: %w", err)
	}
	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return fmt.Errorf("%w: %s", ErrConflict, b.Describe())
		}
		return fmt.Errorf("error writing state object: %w", err)
	}

	s.markSaved(strconv.FormatInt(w.Attrs().Generation, 10))
	b.logger.Debug("Saved state", "location", b.Describe(), "serial", s.Serial)
	return nil
}

func (b *GCSBackend) Close() error {
	return b.client.Close()
}
