package pgtools

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// PostgresRestorer applies a tar archive with pg_restore. It never adds
// --clean or similar flags on its own; if the target holds conflicting
// objects the tool fails and that failure is passed through.
type PostgresRestorer struct{}

func (PostgresRestorer) Restore(ctx context.Context, dsn, options, archivePath string) (string, error) {
	if err := LookupTool("pg_restore"); err != nil {
		return "", err
	}

	args := []string{"--dbname=" + dsn}
	args = append(args, splitOptions(options)...)
	args = append(args, archivePath)

	cmd := exec.CommandContext(ctx, "pg_restore", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	diag := strings.TrimSpace(stderr.String())
	if err != nil {
		return "", &ToolError{Tool: "pg_restore", Stderr: diag, Err: err}
	}
	return diag, nil
}
