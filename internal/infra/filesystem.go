package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// GetWorkDir expands base (which may start with ~), joins path and makes sure the directory exists.
func GetWorkDir(base string, path ...string) (string, error) {
	parts := append([]string{base}, path...)
	workDir, err := homedir.Expand(filepath.Join(parts...))
	if err != nil {
		return "", errors.Wrap(err, "expand work dir")
	}
	if err = os.MkdirAll(workDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create work dir")
	}
	return workDir, nil
}
