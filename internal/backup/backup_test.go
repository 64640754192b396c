package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"larder/internal/database"
	"larder/internal/model"
	"larder/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enabledConfig() Config {
	return Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		Passphrase: "test-passphrase",
	}
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config -> disabled
	m := NewManager(Config{}, nil, nil, testLogger(), nil)
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}
	if m.Enabled() {
		t.Error("expected Enabled() = false")
	}

	// With S3 config but no passphrase -> still disabled
	m2 := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, testLogger(), nil)
	if m2.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m2.Status().State, StateDisabled)
	}

	// Fully configured -> idle
	m3 := NewManager(enabledConfig(), nil, nil, testLogger(), nil)
	if m3.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m3.Status().State, StateIdle)
	}
	if !m3.Enabled() {
		t.Error("expected Enabled() = true")
	}
}

func TestManagerStatusCallback(t *testing.T) {
	var mu sync.Mutex
	var received []Status
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	m := NewManager(enabledConfig(), nil, nil, testLogger(), cb)

	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.setStatus(Status{State: StateIdle})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d callbacks, want 2", len(received))
	}
	if received[0].State != StateRunning {
		t.Errorf("first callback state = %q, want %q", received[0].State, StateRunning)
	}
	if received[1].State != StateIdle {
		t.Errorf("second callback state = %q, want %q", received[1].State, StateIdle)
	}
}

func TestManagerStopSafety(t *testing.T) {
	cfg := enabledConfig()
	cfg.Interval = time.Hour
	m := NewManager(cfg, nil, nil, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, testLogger(), nil)

	m.Start(context.Background()) // no-op when disabled
	m.Stop()                     // should not block
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backups := store.NewBackupStore(db)
	mock := newMockS3()

	cfg := enabledConfig()
	cfg.DBPath = dbPath
	m := NewManager(cfg, db, backups, testLogger(), nil)
	m.client = mock

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	record, err := backups.GetByID(id)
	if err != nil {
		t.Fatalf("get backup record: %v", err)
	}
	if record == nil {
		t.Fatal("expected backup record")
	}
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want %q", record.Status, model.BackupStatusCompleted)
	}
	if record.SizeBytes == 0 {
		t.Error("expected non-zero backup size")
	}

	mock.mu.Lock()
	data, ok := mock.objects[record.S3Key]
	mock.mu.Unlock()
	if !ok {
		t.Fatalf("expected uploaded object at %s", record.S3Key)
	}
	if int64(len(data)) != record.SizeBytes {
		t.Errorf("uploaded size = %d, want %d", len(data), record.SizeBytes)
	}

	if m.Status().State != StateIdle {
		t.Errorf("state after backup = %q, want %q", m.Status().State, StateIdle)
	}
	if m.Status().LastBackup == nil {
		t.Error("expected last backup timestamp")
	}
}

func TestDownloadStreamsUploadedSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backups := store.NewBackupStore(db)
	mock := newMockS3()

	cfg := enabledConfig()
	cfg.DBPath = dbPath
	m := NewManager(cfg, db, backups, testLogger(), nil)
	m.client = mock

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	body, size, err := m.Download(context.Background(), id)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if int64(len(data)) != size {
		t.Errorf("downloaded %d bytes, reported size %d", len(data), size)
	}

	// The stream is the encrypted upload verbatim and decrypts with the
	// configured passphrase.
	record, _ := backups.GetByID(id)
	mock.mu.Lock()
	uploaded := mock.objects[record.S3Key]
	mock.mu.Unlock()
	if !bytes.Equal(data, uploaded) {
		t.Error("downloaded bytes differ from uploaded object")
	}
	plainPath := filepath.Join(dir, "restored.db")
	encPath := filepath.Join(dir, "download.enc")
	if err := os.WriteFile(encPath, data, 0o600); err != nil {
		t.Fatalf("write download: %v", err)
	}
	if err := DecryptFile(encPath, plainPath, cfg.Passphrase); err != nil {
		t.Errorf("decrypt downloaded backup: %v", err)
	}

	if _, _, err := m.Download(context.Background(), 9999); err == nil {
		t.Error("expected error for unknown backup id")
	}
}

func TestRunNowNotConfigured(t *testing.T) {
	m := NewManager(Config{}, nil, nil, testLogger(), nil)

	if _, err := m.RunNow(context.Background()); err == nil {
		t.Fatal("expected error when not configured")
	}
}
