package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Backend names a metrics storage format.
type Backend string

const (
	BackendJSONL  Backend = "jsonl"
	BackendSQLite Backend = "sqlite"
)

// ParseBackend converts a configuration string to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendJSONL, BackendSQLite:
		return b, nil
	case "":
		return BackendJSONL, nil
	default:
		return "", fmt.Errorf("unknown metrics backend %q (want jsonl or sqlite)", s)
	}
}

// OpenSink opens the sink for backend at path.
func OpenSink(backend Backend, path string) (Sink, error) {
	switch backend {
	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create metrics directory: %w", err)
		}
		return OpenStore(path)
	case BackendJSONL, "":
		return OpenJSONL(path)
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", backend)
	}
}

// ReadEvents loads every event stored by backend at path.
func ReadEvents(ctx context.Context, backend Backend, path string) ([]Event, error) {
	switch backend {
	case BackendSQLite:
		s, err := OpenStore(path)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.Events(ctx)
	case BackendJSONL, "":
		return ReadJSONL(path)
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", backend)
	}
}
