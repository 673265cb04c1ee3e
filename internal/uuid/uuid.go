package uuid

import (
	"os"
	"path/filepath"
	"strings"

	guuid "github.com/google/uuid"
)

// LoadOrCreate returns the persisted instance id, minting and persisting a
// fresh one when the file is missing or empty. The id is still usable when
// persisting fails; the error reports why it will not survive a restart.
func LoadOrCreate(path string) (string, error) {
	if b, err := os.ReadFile(path); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}
	id := guuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return id, err
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return id, err
	}
	return id, nil
}
