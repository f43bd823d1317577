// Package deps verifies the external pieces the pipeline leans on: the
// ffmpeg/ffprobe binaries, a Chrome for headless rendering, writable
// workspace directories, and the generation API. The preflight command
// renders these results before a production run burns any quota.
package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"fortuna/internal/config"
	"fortuna/internal/generation"
)

// Requirement defines an external binary the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// chromeCandidates are tried in order when no explicit Chrome path is
// configured.
var chromeCandidates = []string{"google-chrome", "chromium", "chromium-browser", "chrome"}

// Requirements lists the binaries a production run needs under cfg.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Encodes scene clips and the final video"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Measures narration and video durations"},
		{Name: "Chrome", Command: resolveChrome(cfg.Video.ChromePath), Description: "Renders animated scenes headlessly"},
	}
}

func resolveChrome(configured string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	for _, candidate := range chromeCandidates {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}
	return chromeCandidates[0]
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Result reports one preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectoryAccess verifies a directory exists (or can be created) and is
// writable.
func CheckDirectoryAccess(name, dir string) Result {
	if strings.TrimSpace(dir) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("cannot create (%v)", err)}
	}
	probe, err := os.CreateTemp(dir, ".fortuna-preflight-*")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("not writable (%v)", err)}
	}
	probe.Close()
	os.Remove(probe.Name())
	return Result{Name: name, Passed: true, Detail: dir}
}

// CheckGenerationAPI verifies the backend catalog answers. A reachable
// catalog means the base URL and network path are good; credential problems
// surface on the first real completion.
func CheckGenerationAPI(ctx context.Context, catalog generation.CatalogProvider) Result {
	const name = "Generation API"
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	entries, err := catalog.ListBackends(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("catalog unreachable (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d backends listed", len(entries))}
}

// RunAll executes the directory checks plus, when a catalog is supplied, the
// generation API check.
func RunAll(ctx context.Context, cfg *config.Config, catalog generation.CatalogProvider) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if catalog != nil {
		results = append(results, CheckGenerationAPI(ctx, catalog))
	}
	return results
}
