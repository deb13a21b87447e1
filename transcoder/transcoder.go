// Package transcoder converts arbitrary input audio into the single canonical
// encoding the recognizers expect, using an external ffmpeg binary.
package transcoder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/logger"
	"github.com/kbukum/voicenote/process"
)

const (
	inputPattern = "voicenote-*.in"
	outputSuffix = ".ogg"
	stderrLines  = 5
	bytesPerMiB  = 1024 * 1024
)

// Artifact is the pair of temp files owned by one job execution.
type Artifact struct {
	InputPath  string
	OutputPath string
	Size       int64
}

// ReadOutput returns the canonical audio bytes.
func (a *Artifact) ReadOutput() ([]byte, error) {
	data, err := os.ReadFile(a.OutputPath)
	if err != nil {
		return nil, apperrors.ResourceError("read", err)
	}
	return data, nil
}

// RemoveInput deletes the raw input file. Missing files are not an error.
func (a *Artifact) RemoveInput() error {
	return removeIfExists(a.InputPath)
}

// RemoveOutput deletes the canonical output file. Missing files are not an error.
func (a *Artifact) RemoveOutput() error {
	return removeIfExists(a.OutputPath)
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Transcoder runs the canonical ffmpeg conversion.
type Transcoder struct {
	cfg    Config
	runner process.Runner
	log    *logger.Logger
}

// New creates a Transcoder. A nil runner spawns real processes.
func New(cfg Config, runner process.Runner, log *logger.Logger) *Transcoder {
	cfg.ApplyDefaults()
	if runner == nil {
		runner = process.Exec
	}
	return &Transcoder{cfg: cfg, runner: runner, log: log.WithComponent("transcoder")}
}

// CheckBinary reports whether the configured ffmpeg can be found.
func (t *Transcoder) CheckBinary() error {
	_, err := process.LookPath(t.cfg.Binary)
	return err
}

// Args returns the ffmpeg arguments converting in to out.
func (t *Transcoder) Args(in, out string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", in,
		"-vn",
		"-ac", strconv.Itoa(t.cfg.Channels),
		"-ar", strconv.Itoa(t.cfg.SampleRate),
		"-c:a", DefaultCodec,
		"-b:a", t.cfg.Bitrate,
		"-application", DefaultApplication,
		"-f", DefaultFormat,
		out,
	}
}

// Canonicalize writes input to a unique temp file and converts it.
//
// The returned Artifact is non-nil whenever a temp file was created, even
// when err is non-nil, so the caller can always remove what exists.
func (t *Transcoder) Canonicalize(ctx context.Context, input []byte) (*Artifact, error) {
	if len(input) == 0 {
		return nil, apperrors.ConversionFailed("empty input", nil)
	}

	f, err := os.CreateTemp(t.cfg.TempDir, inputPattern)
	if err != nil {
		return nil, apperrors.ResourceError("create", err)
	}
	art := &Artifact{
		InputPath:  f.Name(),
		OutputPath: strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())) + outputSuffix,
	}

	if _, err := f.Write(input); err != nil {
		f.Close() //nolint:errcheck // write error takes precedence
		return art, apperrors.ResourceError("write", err)
	}
	if err := f.Close(); err != nil {
		return art, apperrors.ResourceError("write", err)
	}

	cmd := process.Command{
		Binary:  t.cfg.Binary,
		Args:    t.Args(art.InputPath, art.OutputPath),
		Timeout: t.cfg.Timeout,
	}
	res, err := t.runner.Run(ctx, cmd)
	if err != nil {
		return art, t.conversionError(art, res, err)
	}

	info, err := os.Stat(art.OutputPath)
	if err != nil {
		return art, t.conversionError(art, res, fmt.Errorf("output missing: %w", err))
	}
	if info.Size() == 0 {
		return art, t.conversionError(art, res, errors.New("output is empty"))
	}
	art.Size = info.Size()

	t.log.Info("audio converted", map[string]interface{}{
		logger.FieldSizeBytes: art.Size,
		"size_mib":            fmt.Sprintf("%.2f", float64(art.Size)/bytesPerMiB),
		"input_bytes":         len(input),
		logger.FieldDuration:  durationOf(res),
	})
	return art, nil
}

func (t *Transcoder) conversionError(art *Artifact, res *process.Result, cause error) error {
	reason := cause.Error()
	if tail := res.StderrTail(stderrLines); tail != "" {
		reason = fmt.Sprintf("%s: %s", reason, tail)
	}
	exitCode := -1
	if res != nil {
		exitCode = res.ExitCode
	}
	t.log.Warn("audio conversion failed", map[string]interface{}{
		logger.FieldError: reason,
		"exit_code":       exitCode,
	})
	return apperrors.ConversionFailed(reason, cause).WithDetails(map[string]any{
		"input_path":  art.InputPath,
		"output_path": art.OutputPath,
		"exit_code":   exitCode,
	})
}

func durationOf(res *process.Result) string {
	if res == nil {
		return ""
	}
	return res.Duration.String()
}
