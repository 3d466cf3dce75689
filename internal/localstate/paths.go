// Package localstate resolves where mcp-worklog keeps its own files.
package localstate

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	envHome    = "WORKLOG_HOME" // override for tests and portable installs
	dirName    = ".mcp-worklog" // default under $HOME
	digestsDir = "digests"
	dbFilename = "worklog.db"
)

// DataDir returns the directory where local state is stored (~/.mcp-worklog).
// It creates the directory with 0700 permissions if it does not exist.
func DataDir() (string, error) {
	if custom := os.Getenv(envHome); custom != "" {
		if err := os.MkdirAll(custom, 0o700); err != nil {
			return "", err
		}
		return custom, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// DigestsDir returns the default directory for the file digest store.
func DigestsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, digestsDir), nil
}

// DBPath returns the absolute path to the SQLite digest database.
func DBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}
