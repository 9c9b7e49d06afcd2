package stage

import (
	"fmt"
	"os"
	"strings"

	"contentengine/internal/services"
)

// RequireFile returns services.ErrValidation unless path names a non-empty
// regular file.
func RequireFile(stageName, what, path string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrValidation, stageName, "prepare", what+" missing", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "prepare", fmt.Sprintf("%s not found at %s", what, path), err)
	}
	if info.IsDir() || info.Size() == 0 {
		return services.Wrap(services.ErrValidation, stageName, "prepare", fmt.Sprintf("%s at %s is empty", what, path), nil)
	}
	return nil
}

// Require returns services.ErrValidation when ok is false.
func Require(stageName string, ok bool, what string) error {
	if ok {
		return nil
	}
	return services.Wrap(services.ErrValidation, stageName, "prepare", what+" missing", nil)
}
