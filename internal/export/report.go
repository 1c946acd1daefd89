package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/focusnest/study-tracker/internal/progress"
)

// ErrDisabled is returned when no export destination is configured.
var ErrDisabled = errors.New("report export is not configured")

// Report is the static, non-interactive rendition of a week for print or archive.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Interactive bool              `json:"interactive"`
	View        progress.WeekView `json:"view"`
}

// NewReport wraps a week view for printing.
func NewReport(view progress.WeekView, now time.Time) Report {
	return Report{GeneratedAt: now.UTC(), Interactive: false, View: view}
}

// Encode writes the report as indented JSON.
func (r Report) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Exporter stores a week report and returns its location.
type Exporter interface {
	Export(ctx context.Context, report Report) (string, error)
}

// objectWriter opens a writer for an object. It hides the storage client so tests can substitute it.
type objectWriter func(ctx context.Context, object string) io.WriteCloser

// Service writes reports to a Cloud Storage bucket.
type Service struct {
	bucket string
	open   objectWriter
	close  func() error
}

// NewService creates a Cloud Storage backed exporter.
func NewService(ctx context.Context, bucketName string) (*Service, error) {
	if bucketName == "" {
		return nil, ErrDisabled
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	bucket := client.Bucket(bucketName)
	return &Service{
		bucket: bucketName,
		open: func(ctx context.Context, object string) io.WriteCloser {
			w := bucket.Object(object).NewWriter(ctx)
			w.ContentType = "application/json"
			w.CacheControl = "private, max-age=0"
			return w
		},
		close: client.Close,
	}, nil
}

// Export uploads report under reports/{weekID}/{timestamp}-{uuid}.json.
func (s *Service) Export(ctx context.Context, report Report) (string, error) {
	object := fmt.Sprintf("reports/%s/%s-%s.json",
		report.View.Week.ID, report.GeneratedAt.Format("20060102T150405Z"), uuid.NewString())

	w := s.open(ctx, object)
	if err := report.Encode(w); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

// Close releases the storage client.
func (s *Service) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
