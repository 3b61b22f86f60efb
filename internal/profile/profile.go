package profile

import (
	"fmt"
	"os"
	"strings"
)

// Profile is the master resume, loaded once at startup. It is read-only for
// the rest of the run, so scoring and generation share it without locking.
type Profile struct {
	Path    string
	Content string
}

func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read master profile: %w", err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("master profile %s is empty", path)
	}

	return &Profile{Path: path, Content: string(data)}, nil
}
