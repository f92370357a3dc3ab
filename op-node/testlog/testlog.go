// Package testlog provides a log.Logger that writes to a testing.T via
// t.Log, so test output only surfaces under `go test -v` or on failure,
// matching the op-node/testlog helper the teacher's tests import.
package testlog

import (
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/log"
)

// Logger returns a log.Logger at the given level that writes through t.Log.
func Logger(t testing.TB, level slog.Level) log.Logger {
	return log.NewLogger(log.NewTerminalHandlerWithLevel(testWriter{t}, level, false))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Logf("%s", p)
	return len(p), nil
}
