package cli

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/studioflow/internal/config"
	"github.com/aretw0/studioflow/pkg/domain"
)

func sampleRecord() *domain.RunRecord {
	rec := domain.NewRunRecord("run-1", "/work/workflow.osw")
	rec.Results = map[string]any{"ScaleArea": map[string]any{"api_token": "secret", "area": 150.0}}
	rec.Finish(nil)
	return rec
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := OpenBackend(config.StoreConfig{Backend: config.BackendMemory})
		require.NoError(t, err)
		defer b.Close()

		require.NoError(t, b.Store.Save(ctx, sampleRecord()))
		got, err := b.Store.Load(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, domain.RunCompleted, got.Status)
		assert.NotNil(t, b.Locker)
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		b, err := OpenBackend(config.StoreConfig{Backend: config.BackendFile, Path: dir})
		require.NoError(t, err)
		defer b.Close()

		require.NoError(t, b.Store.Save(ctx, sampleRecord()))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.NotEmpty(t, entries)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		b, err := OpenBackend(config.StoreConfig{
			Backend:   config.BackendRedis,
			RedisAddr: mr.Addr(),
			Prefix:    "test:",
			TTL:       time.Hour,
		})
		require.NoError(t, err)
		defer b.Close()

		require.NoError(t, b.Store.Save(ctx, sampleRecord()))
		assert.True(t, mr.Exists("test:run-1"))

		unlock, err := b.Locker.Lock(ctx, "/work/run", time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	})

	t.Run("redact and encrypt", func(t *testing.T) {
		dir := t.TempDir()
		key := hex.EncodeToString(make([]byte, 32))
		b, err := OpenBackend(config.StoreConfig{
			Backend:       config.BackendFile,
			Path:          dir,
			EncryptionKey: key,
			Redact:        []string{"(?i)token"},
		})
		require.NoError(t, err)

		require.NoError(t, b.Store.Save(ctx, sampleRecord()))

		files, err := filepath.Glob(filepath.Join(dir, "*"))
		require.NoError(t, err)
		require.Len(t, files, 1)
		raw, err := os.ReadFile(files[0])
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "secret")
		assert.NotContains(t, string(raw), "ScaleArea")

		got, err := b.Store.Load(ctx, "run-1")
		require.NoError(t, err)
		area := got.Results["ScaleArea"].(map[string]any)
		assert.Equal(t, 150.0, area["area"])
		assert.NotEqual(t, "secret", area["api_token"])
	})

	t.Run("bad key", func(t *testing.T) {
		_, err := OpenBackend(config.StoreConfig{Backend: config.BackendMemory, EncryptionKey: "short"})
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := OpenBackend(config.StoreConfig{Backend: "s3"})
		assert.Error(t, err)
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 130, ExitCode(context.Canceled))
	assert.Equal(t, 2, ExitCode(domain.NewError(domain.ValidationError, "", domain.ErrConflictingModes)))
	assert.Equal(t, 1, ExitCode(domain.NewError(domain.EngineError, "", domain.ErrNoEngine)))
}
