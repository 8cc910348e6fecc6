// Package output writes the named outputs of a run.
// Outputs are appended to the file named by the GITHUB_OUTPUT
// environment variable in the name=value line format. Without an output
// file the values are only logged.
package output

import (
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/simplesurance/prsync/internal/logfields"
)

const loggerName = "output"

// ConflictedOutput is the name of the output reporting if the last
// merge outcome of a pull request was a merge conflict.
const ConflictedOutput = "conflicted"

type Writer struct {
	path   string
	logger *zap.Logger
}

// NewWriter returns a writer that appends outputs to the file at path.
// An empty path disables writing, outputs are then only logged.
func NewWriter(path string) *Writer {
	return &Writer{
		path:   path,
		logger: zap.L().Named(loggerName),
	}
}

func (w *Writer) Set(name, value string) error {
	w.logger.Debug(
		"setting output",
		logfields.Event("output_set"),
		zap.String("output.name", name),
		zap.String("output.value", value),
	)

	if w.path == "" {
		return nil
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening output file failed: %w", err)
	}

	_, err = fmt.Fprintf(f, "%s=%s\n", name, value)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("writing output failed: %w", err)
	}

	return f.Close()
}

// SetConflicted records the conflicted output of a merge attempt
// sequence.
func (w *Writer) SetConflicted(val bool) error {
	return w.Set(ConflictedOutput, strconv.FormatBool(val))
}
