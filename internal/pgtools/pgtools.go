package pgtools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Dumper produces a compressed archive of the source database at dstPath.
// The returned diag string is any stderr output the tool emitted under a
// zero exit; callers log it as a warning, never as a failure.
type Dumper interface {
	Dump(ctx context.Context, dsn, options, dstPath string) (diag string, err error)
}

// Restorer applies the decompressed archive at archivePath to the target
// database.
type Restorer interface {
	Restore(ctx context.Context, dsn, options, archivePath string) (diag string, err error)
}

// ToolError reports a non-zero exit from an external tool, carrying its
// captured diagnostic output.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, e.Stderr)
}

func (e *ToolError) Unwrap() error { return e.Err }

// overridable in tests
var execLookPath = exec.LookPath

// LookupTool fails when the named tool is not on PATH, so a pipeline can
// refuse to start work it cannot finish.
func LookupTool(name string) error {
	if _, err := execLookPath(name); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return nil
}

// splitOptions turns a configured options string into argv entries. The
// string is trusted input and no shell ever interprets it, so whitespace
// is the only separator and quoting is not supported.
func splitOptions(options string) []string {
	return strings.Fields(options)
}
