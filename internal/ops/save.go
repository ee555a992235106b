// Package ops exports and imports save files outside the running game.
package ops

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"catbattle/internal/progress"
	"catbattle/internal/storage"
)

var (
	ErrNoSave      = errors.New("no saved progress")
	ErrInvalidSave = errors.New("save file is not valid JSON")
	ErrWriteFailed = errors.New("storage rejected the save")
)

// Slot is the save slot ops reads and writes. *storage.Adapter implements it.
type Slot interface {
	Raw() (string, bool)
	SaveState(state progress.StorageState) bool
}

// ExportSave writes the raw saved envelope to w unchanged.
func ExportSave(slot Slot, w io.Writer) error {
	raw, ok := slot.Raw()
	if !ok {
		return ErrNoSave
	}
	_, err := io.WriteString(w, raw)
	return err
}

// ExportSaveFile writes the saved envelope to path, replacing it atomically.
func ExportSaveFile(slot Slot, path string) error {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := ExportSave(slot, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ImportSave reads an envelope from r, repairs it the same way a load
// would and stores the result. It reports whether repairs were needed.
func ImportSave(slot Slot, r io.Reader, now time.Time) (bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return false, fmt.Errorf("reading save: %w", err)
	}
	if !json.Valid(data) {
		return false, ErrInvalidSave
	}
	state, repaired := storage.ValidateAndMigrate(data, now)
	if !slot.SaveState(state) {
		return repaired, ErrWriteFailed
	}
	return repaired, nil
}

func ImportSaveFile(slot Slot, path string, now time.Time) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return ImportSave(slot, f, now)
}

// Digest fingerprints a state by its canonical JSON encoding, so two saves
// that differ only in whitespace or key order compare equal.
func Digest(state progress.StorageState) (string, error) {
	b, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
