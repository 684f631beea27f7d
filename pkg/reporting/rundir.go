package reporting

import (
	"fmt"
	"path/filepath"
	"time"
)

// ResolveRunDir computes the top-level project directory under runsDir.
// The literal project name "Test" is special-cased to a timestamped
// directory, so repeated test invocations never collide with a
// pre-existing run directory (which is a setup error per the pipeline's
// directory-must-not-exist invariant).
func ResolveRunDir(runsDir, project string, now time.Time) string {
	if project == "Test" {
		return filepath.Join(runsDir, fmt.Sprintf("Test-%d", now.UnixNano()))
	}
	return filepath.Join(runsDir, project)
}
