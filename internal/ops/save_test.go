package ops

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"catbattle/internal/card"
	"catbattle/internal/clock"
	"catbattle/internal/kv"
	"catbattle/internal/progress"
	"catbattle/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)

func newSlot(t *testing.T) (*storage.Adapter, *kv.MemoryStore) {
	t.Helper()
	mem := kv.NewMemoryStore(0)
	a := storage.New(mem, storage.Options{
		Clock:  clock.NewFakeClock(t0),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return a, mem
}

func TestExportWithoutSave(t *testing.T) {
	a, _ := newSlot(t)
	var buf bytes.Buffer
	assert.ErrorIs(t, ExportSave(a, &buf), ErrNoSave)
	assert.Zero(t, buf.Len())
}

func TestExportImportFile(t *testing.T) {
	src, _ := newSlot(t)
	state := progress.DefaultState(t0)
	state.GameProgress.TotalPacksOpened = 3
	state.GameProgress.UserCollection = []card.Card{{ID: card.IntID(9), Rarity: card.RarityEpic}}
	require.True(t, src.SaveState(state))

	path := filepath.Join(t.TempDir(), "exports", "save.json")
	require.NoError(t, ExportSaveFile(src, path))

	raw, ok := src.Raw()
	require.True(t, ok)
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, string(onDisk))

	dst, _ := newSlot(t)
	repaired, err := ImportSaveFile(dst, path, t0)
	require.NoError(t, err)
	assert.False(t, repaired)
	assert.Equal(t, state, dst.LoadState())

	want, err := Digest(state)
	require.NoError(t, err)
	got, err := Digest(dst.LoadState())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestImportRepairs(t *testing.T) {
	a, _ := newSlot(t)
	repaired, err := ImportSave(a, strings.NewReader(`{"gameProgress":{"currentScreen":"lobby","totalPacksOpened":2}}`), t0)
	require.NoError(t, err)
	assert.True(t, repaired)

	got := a.LoadState()
	assert.Equal(t, progress.ScreenInstructions, got.GameProgress.CurrentScreen)
	assert.Equal(t, 2, got.GameProgress.TotalPacksOpened)
	assert.Equal(t, progress.DefaultVersion, got.Version)
}

func TestImportRejects(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		a, mem := newSlot(t)
		_, err := ImportSave(a, strings.NewReader(`{"gameProgress":`), t0)
		assert.ErrorIs(t, err, ErrInvalidSave)
		assert.Zero(t, mem.Len())
	})

	t.Run("storage down", func(t *testing.T) {
		a, mem := newSlot(t)
		mem.SetUnavailable(true)
		_, err := ImportSave(a, strings.NewReader(`{}`), t0)
		assert.ErrorIs(t, err, ErrWriteFailed)
	})

	t.Run("missing file", func(t *testing.T) {
		a, _ := newSlot(t)
		_, err := ImportSaveFile(a, filepath.Join(t.TempDir(), "absent.json"), t0)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestExportSaveFileRequiresPath(t *testing.T) {
	a, _ := newSlot(t)
	assert.Error(t, ExportSaveFile(a, "  "))
}

func TestDigestIgnoresFormatting(t *testing.T) {
	a, _ := newSlot(t)
	_, err := ImportSave(a, strings.NewReader(`{ "version":"1.0.0",
		"gameProgress": {"totalPacksOpened": 1, "lastPlayedAt": "2026-05-01T08:30:00Z"} }`), t0)
	require.NoError(t, err)
	b, _ := newSlot(t)
	_, err = ImportSave(b, strings.NewReader(`{"gameProgress":{"lastPlayedAt":"2026-05-01T08:30:00Z","totalPacksOpened":1},"version":"1.0.0"}`), t0)
	require.NoError(t, err)

	da, err := Digest(a.LoadState())
	require.NoError(t, err)
	db, err := Digest(b.LoadState())
	require.NoError(t, err)
	assert.Equal(t, da, db)
}
