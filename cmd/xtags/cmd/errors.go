package cmd

import (
	"strings"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns actionable guidance when a bbolt open fails due to
// lock contention. The usual holder is a running `xtags watch`.
func diagnoseDBLock() string {
	return "tag database is locked by another process\n" +
		"  → a running `xtags watch` holds it:  ps aux | grep 'xtags watch'\n" +
		"  → stop it, or point this command at another --db\n" +
		"  → then retry your command"
}
