package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Resolve returns the named secret from a file when a path is given, otherwise
// from the inline value. The file takes precedence so that credentials can stay
// out of config files. The returned secret is always trimmed; an empty result
// is an error.
func Resolve(name, inline, file string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "secret"
	}

	if file = strings.TrimSpace(file); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}

		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	secret := strings.TrimSpace(inline)
	if secret == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
