package persist

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dshills/reckon/internal/engine/history"
)

// SaveSnapshot writes a full memento as JSON.
// The JSON structure is exactly the memento's map form, so anything saved
// here reconstructs through the same validation path as LoadSnapshot.
func SaveSnapshot(path string, m *history.Memento) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}

	data, err := json.MarshalIndent(m.ToMap(), "", "  ")
	if err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.json")
	if err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// LoadSnapshot reads a memento back from a JSON snapshot file.
// Corrupt snapshot data surfaces history.ErrMalformedSnapshot through the
// returned error; the caller's state is untouched either way.
func LoadSnapshot(path string) (*history.Memento, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &PersistError{Op: "load", Path: path, Err: err}
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &PersistError{Op: "load", Path: path, Err: err}
	}

	m, err := history.FromMap(raw)
	if err != nil {
		return nil, &PersistError{Op: "load", Path: path, Err: err}
	}
	return m, nil
}
