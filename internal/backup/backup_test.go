package backup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hazelwick/spotless/internal/database"
)

type fakeS3 struct {
	objects  []types.Object
	puts     []string
	putBytes int64
	deleted  []string
	listErr  error
}

func (f *fakeS3) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	n, err := io.Copy(io.Discard, input.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, aws.ToString(input.Key))
	f.putBytes = n
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &s3.ListObjectsV2Output{Contents: f.objects}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newTestManager(t *testing.T, fake *fakeS3) *Manager {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := Config{
		S3: S3Config{Bucket: "spotless-backups", AccessKey: "key", SecretKey: "secret"},
	}
	m := NewManager(cfg, db, slog.New(slog.DiscardHandler))
	m.client = fake
	return m
}

func TestRunOnceUploadsSnapshot(t *testing.T) {
	fake := &fakeS3{}
	m := newTestManager(t, fake)

	if err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if len(fake.puts) != 1 {
		t.Fatalf("uploads = %d, want 1", len(fake.puts))
	}
	key := fake.puts[0]
	if !strings.HasPrefix(key, "backups/spotless-") || !strings.HasSuffix(key, ".db") {
		t.Errorf("key = %q, want backups/spotless-*.db", key)
	}
	if fake.putBytes == 0 {
		t.Error("uploaded snapshot is empty")
	}

	lastRun, lastErr := m.LastStatus()
	if lastRun == nil {
		t.Error("lastRun not recorded after successful run")
	}
	if lastErr != "" {
		t.Errorf("lastErr = %q, want empty", lastErr)
	}
}

func TestRunOncePrunesOldSnapshots(t *testing.T) {
	now := time.Now().UTC()
	stale := now.Add(-45 * 24 * time.Hour)
	fresh := now.Add(-time.Hour)
	fake := &fakeS3{
		objects: []types.Object{
			{Key: aws.String("backups/spotless-20260701-000000.db"), LastModified: &stale},
			{Key: aws.String("backups/spotless-20260828-000000.db"), LastModified: &fresh},
		},
	}
	m := newTestManager(t, fake)

	if err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if len(fake.deleted) != 1 {
		t.Fatalf("deleted = %v, want exactly the stale key", fake.deleted)
	}
	if fake.deleted[0] != "backups/spotless-20260701-000000.db" {
		t.Errorf("deleted key = %q, want the stale snapshot", fake.deleted[0])
	}
}

func TestRunOnceSucceedsWhenPruneFails(t *testing.T) {
	fake := &fakeS3{listErr: errors.New("list denied")}
	m := newTestManager(t, fake)

	if err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v, want nil when only the prune fails", err)
	}
	if len(fake.puts) != 1 {
		t.Errorf("uploads = %d, want 1", len(fake.puts))
	}
}

func TestRunOnceWithoutConfiguration(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{}, db, slog.New(slog.DiscardHandler))
	if m.Enabled() {
		t.Error("Enabled() = true without credentials")
	}
	if err := m.RunOnce(context.Background()); err == nil {
		t.Error("RunOnce() succeeded without configuration")
	}
}
