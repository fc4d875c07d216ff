package logging

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// SourceFormatter wraps another formatter and reports the caller as a short
// `x_file_source="file.go:42"` field.
type SourceFormatter struct {
	Underlying logrus.Formatter
	// AddSpace appends an empty line after every entry.
	AddSpace bool
}

// Format renders a single log entry.
func (f *SourceFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry.HasCaller() {
		entry.Data["x_file_source"] = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	formatted, err := f.Underlying.Format(entry)
	if err != nil {
		return nil, err
	}

	if f.AddSpace {
		return append(formatted, '\n'), nil
	}
	return formatted, nil
}
