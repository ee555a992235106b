// Package kv is the durable, synchronous key-value store that player
// progress is written to. It plays the role a browser's local storage plays
// for the web client: string keys, string values, and calls that either
// complete or fail immediately.
package kv

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuotaExceeded is returned when a write would exceed the store's capacity.
	ErrQuotaExceeded = errors.New("kv: quota exceeded")
	// ErrUnavailable is returned when the store cannot be used at all.
	ErrUnavailable = errors.New("kv: storage unavailable")
)

// Store is implemented by every backend.
//
// RemoveItem on an absent key succeeds.
type Store interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend string
	// Dir is the directory for the file backend.
	Dir string
	// Path is the database file for the sqlite backend.
	Path string
	// QuotaBytes caps the memory backend; zero means unlimited.
	QuotaBytes int
}

// Open builds the backend named by opts.Backend. The returned close func is
// never nil.
func Open(opts Options) (Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendMemory, "":
		return NewMemoryStore(opts.QuotaBytes), noop, nil
	case BackendFile:
		fs, err := NewFileStore(opts.Dir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	case BackendSQLite:
		ss, err := OpenSQLite(opts.Path)
		if err != nil {
			return nil, noop, err
		}
		return ss, ss.Close, nil
	default:
		return nil, noop, fmt.Errorf("kv: unknown backend %q", opts.Backend)
	}
}
