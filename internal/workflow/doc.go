// Package workflow coordinates a full production run: script generation,
// visual direction, narration, frame rendering, assembly, publishing, and
// the optional upload. Stages run sequentially per sign; a failure aborts
// the run for that sign and leaves the run workspace in place for
// inspection.
package workflow
