package app

import (
	"fmt"
	"os"

	"github.com/dev-tams/snapvault/internal/scratch"
)

// cleanup tracks the scratch files a pipeline run allocated and releases
// every one of them on exit, whichever stage failed. Releases are
// attempted independently, reverse allocation order; a failed release is
// a stderr warning and never replaces the run's primary error.
type cleanup struct {
	paths []string
}

func (c *cleanup) add(path string) {
	c.paths = append(c.paths, path)
}

func (c *cleanup) run() {
	for i := len(c.paths) - 1; i >= 0; i-- {
		if err := scratch.Release(c.paths[i]); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
}
