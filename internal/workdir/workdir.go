// Package workdir locates the coach's working files: the set log, session
// logs, utterance recordings and rendered speech.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sub directories of the root.
const (
	Utterances = "utterances"
	Voice      = "voice"
	Logs       = "logs"
)

// Root returns the base directory for all working files:
//
//	$HOME/Documents/Alkime/OneRep
func Root() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, "Documents", "Alkime", "OneRep"), nil
}

// Path returns the path of elem under the root.
func Path(elem ...string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}

	return filepath.Join(append([]string{root}, elem...)...), nil
}

// Prep ensures that the named directory under the root exists and returns it.
func Prep(name string) (string, error) {
	dir, err := Path(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create working directory %s: %w", dir, err)
	}

	return dir, nil
}
