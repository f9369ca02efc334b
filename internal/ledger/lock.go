package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// lockInfo is the lock file format used to claim exclusive write
// access to a ledger directory.
type lockInfo struct {
	Holder    string    `json:"holder"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
}

const lockFileName = ".lock"

// acquireLock creates a lock file in the ledger directory. A lock held
// by a dead process on this host is treated as stale and overwritten.
func acquireLock(dir string) (string, error) {
	lockPath := filepath.Join(dir, lockFileName)

	if data, err := os.ReadFile(lockPath); err == nil {
		var existing lockInfo
		if json.Unmarshal(data, &existing) == nil {
			if isProcessAlive(existing.PID, existing.Hostname) {
				return "", fmt.Errorf("ledger is locked by another process (PID %d on %s, started %s)",
					existing.PID, existing.Hostname, existing.StartedAt.Format(time.RFC3339))
			}
			// Stale lock - will overwrite
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}

	lock := lockInfo{
		Holder:    "codeanalyzer",
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal lock: %w", err)
	}

	if err := os.WriteFile(lockPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to create ledger lock: %w", err)
	}

	return lockPath, nil
}

// releaseLock removes the lock file. Safe to call with an empty path
// or after the file is already gone.
func releaseLock(lockPath string) error {
	if lockPath == "" {
		return nil
	}

	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove ledger lock: %w", err)
	}

	return nil
}

// isProcessAlive checks if a process with the given PID exists on the
// given hostname. Remote holders cannot be checked and are assumed
// alive.
func isProcessAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		return true
	}

	if !strings.EqualFold(hostname, currentHost) {
		return true
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 probes for existence without delivering anything.
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	// EPERM means the process exists but belongs to someone else.
	if err == syscall.EPERM {
		return true
	}

	return false
}
