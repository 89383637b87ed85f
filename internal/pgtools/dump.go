package pgtools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dev-tams/snapvault/internal/compression"
)

// PostgresDumper streams a pg_dump tar archive through gzip into a local
// file. The full dump is never held in memory.
type PostgresDumper struct{}

func (PostgresDumper) Dump(ctx context.Context, dsn, options, dstPath string) (string, error) {
	if err := LookupTool("pg_dump"); err != nil {
		return "", err
	}

	args := []string{"--dbname=" + dsn, "--format=tar"}
	args = append(args, splitOptions(options)...)

	// Argument list only; nothing here passes through a shell.
	cmd := exec.CommandContext(ctx, "pg_dump", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("pg_dump stdout: %w", err)
	}

	f, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", dstPath, err)
	}

	if err := cmd.Start(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("start pg_dump: %w", err)
	}

	_, copyErr := compression.Gzip(f, stdout)
	if copyErr != nil {
		// pg_dump may still be streaming into the pipe; close the read
		// end so it hits a broken pipe and Wait can return.
		_ = stdout.Close()
	}
	waitErr := cmd.Wait()

	syncErr := f.Sync()
	closeErr := f.Close()

	diag := strings.TrimSpace(stderr.String())
	if copyErr != nil {
		return diag, fmt.Errorf("compress dump stream: %w", copyErr)
	}
	if waitErr != nil {
		return "", &ToolError{Tool: "pg_dump", Stderr: diag, Err: waitErr}
	}
	if syncErr != nil {
		return diag, fmt.Errorf("sync %s: %w", dstPath, syncErr)
	}
	if closeErr != nil {
		return diag, fmt.Errorf("close %s: %w", dstPath, closeErr)
	}
	return diag, nil
}
