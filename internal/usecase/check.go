package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// CheckUseCase probes the external tools the pipeline shells out to and
// the optional vision-model files, without touching any video.
type CheckUseCase struct {
	ModelPath   string
	PromptsPath string
}

// CheckResult is the probe outcome for one dependency.
type CheckResult struct {
	Name     string
	Required bool
	OK       bool
	Detail   string
}

type toolProbe struct {
	name        string
	versionArgs []string
	required    bool
}

var probes = []toolProbe{
	{name: "ffmpeg", versionArgs: []string{"-version"}, required: true},
	{name: "ffprobe", versionArgs: []string{"-version"}, required: true},
	{name: "yt-dlp", versionArgs: []string{"--version"}, required: true},
	{name: "tesseract", versionArgs: []string{"--version"}, required: true},
}

// Run probes every dependency. ok is false when a required one is
// missing; optional misses (the vision model) only mean the heuristic
// fallback will classify.
func (uc *CheckUseCase) Run(ctx context.Context) (results []CheckResult, ok bool) {
	ok = true
	for _, p := range probes {
		r := probeTool(ctx, p)
		if p.required && !r.OK {
			ok = false
		}
		results = append(results, r)
	}

	results = append(results,
		probeFile("clip model", uc.ModelPath),
		probeFile("clip prompts", uc.PromptsPath),
	)
	return results, ok
}

func probeTool(ctx context.Context, p toolProbe) CheckResult {
	r := CheckResult{Name: p.name, Required: p.required}
	path, err := exec.LookPath(p.name)
	if err != nil {
		r.Detail = "not found in PATH"
		return r
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, p.versionArgs...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		r.Detail = fmt.Sprintf("found but not runnable: %v", err)
		return r
	}

	r.OK = true
	r.Detail = firstLine(out.String())
	return r
}

func probeFile(name, path string) CheckResult {
	r := CheckResult{Name: name}
	if path == "" {
		r.Detail = "not configured"
		return r
	}
	info, err := os.Stat(path)
	if err != nil {
		r.Detail = fmt.Sprintf("missing: %s", path)
		return r
	}
	r.OK = true
	r.Detail = fmt.Sprintf("%s (%d bytes)", path, info.Size())
	return r
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// RenderChecks prints the probe results in the CLI's check form.
func RenderChecks(w io.Writer, results []CheckResult) {
	for _, r := range results {
		mark := "ok"
		if !r.OK {
			mark = "MISSING"
			if !r.Required {
				mark = "optional"
			}
		}
		fmt.Fprintf(w, "  %-14s %-8s %s\n", r.Name, mark, r.Detail)
	}
}
