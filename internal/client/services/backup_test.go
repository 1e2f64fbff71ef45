package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend хранит объекты в памяти и запоминает последние аргументы.
type fakeBackend struct {
	objects map[string][]byte

	ensureErr error
	putErr    error

	ensured         int
	lastKey         string
	lastSize        int64
	lastContentType string
}

func (f *fakeBackend) EnsureBucket(context.Context) error {
	f.ensured++
	return f.ensureErr
}

func (f *fakeBackend) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	f.lastKey, f.lastSize, f.lastContentType = key, size, contentType
	if f.putErr != nil {
		return f.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = b
	return nil
}

func (f *fakeBackend) Get(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := f.objects[key]
	if !ok {
		return nil, common.NotFound("backup not found")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeBackend) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeBackend) Bucket() string { return "test-bucket" }

func TestBackupKey(t *testing.T) {
	ts := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("CET", -2*3600))
	assert.Equal(t, "exports/2024/03/10/abc.json", BackupKey(ts, "abc"))
}

func TestBackupService_UploadRestore(t *testing.T) {
	src := newFixture(t)
	seed(t, src)
	backend := &fakeBackend{}
	b := NewBackupService(backend, newTransfer(src), logging.Discard())
	b.now = func() time.Time { return time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC) }

	key, err := b.Upload(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^exports/2025/01/02/[0-9a-f-]{36}\.json$`, key)
	assert.Equal(t, 1, backend.ensured)
	assert.Equal(t, "application/json", backend.lastContentType)
	assert.Equal(t, int64(len(backend.objects[key])), backend.lastSize)

	dst := newFixture(t)
	restore := NewBackupService(backend, newTransfer(dst), logging.Discard())
	counts, err := restore.Restore(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, ImportCounts{Users: 1, Reviews: 1}, counts)
}

func TestBackupService_Upload_Errors(t *testing.T) {
	f := newFixture(t)

	backend := &fakeBackend{ensureErr: errors.New("denied")}
	_, err := NewBackupService(backend, newTransfer(f), logging.Discard()).Upload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure bucket")

	backend = &fakeBackend{putErr: errors.New("boom")}
	_, err = NewBackupService(backend, newTransfer(f), logging.Discard()).Upload(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestBackupService_Restore_Missing(t *testing.T) {
	f := newFixture(t)
	_, err := NewBackupService(&fakeBackend{}, newTransfer(f), logging.Discard()).Restore(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
