package converters

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/rs/zerolog"

	"github.com/akila/convert-api/workers"
)

// Office converts documents with an external office suite.
type Office interface {
	Convert(ctx context.Context, inputPath, outputPath, format string) error
}

// sofficeCandidates are probed in order when no binary is configured.
var sofficeCandidates = []string{
	"/opt/homebrew/bin/soffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
	"/usr/bin/libreoffice",
	"/usr/bin/soffice",
	"/usr/lib/libreoffice/program/soffice",
}

// LibreOffice drives a headless soffice process, one invocation per conversion.
type LibreOffice struct {
	binary  string
	timeout time.Duration
	pool    *workers.WorkerPool
	logger  zerolog.Logger
}

// NewLibreOffice returns a converter for binary, or the first installed
// candidate when binary is empty. Conversions run on pool.
func NewLibreOffice(binary string, timeout time.Duration, pool *workers.WorkerPool, logger zerolog.Logger) *LibreOffice {
	if binary == "" {
		binary = FindSoffice()
	}
	return &LibreOffice{
		binary:  binary,
		timeout: timeout,
		pool:    pool,
		logger:  logger.With().Str("component", "libreoffice").Logger(),
	}
}

// FindSoffice returns the first soffice binary found, falling back to PATH lookup.
func FindSoffice() string {
	for _, p := range sofficeCandidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, name := range []string{"soffice", "libreoffice"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return "soffice"
}

// Binary is the resolved executable.
func (o *LibreOffice) Binary() string {
	return o.binary
}

// Convert converts inputPath to format and moves the result to outputPath.
func (o *LibreOffice) Convert(ctx context.Context, inputPath, outputPath, format string) error {
	if o.pool == nil {
		return o.convert(ctx, inputPath, outputPath, format)
	}
	return o.pool.Submit(ctx, func(ctx context.Context) error {
		return o.convert(ctx, inputPath, outputPath, format)
	})
}

func (o *LibreOffice) convert(ctx context.Context, inputPath, outputPath, format string) error {
	absInputPath, err := filepath.Abs(inputPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for input: %w", err)
	}

	workDir, err := os.MkdirTemp("", "soffice-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	// A private profile per call avoids the profile lock held by concurrent instances.
	userInstallDir := filepath.Join(workDir, "profile")
	args := []string{
		"-env:UserInstallation=file://" + filepath.ToSlash(userInstallDir),
		"--headless",
		"--norestore",
	}
	if strings.EqualFold(filepath.Ext(absInputPath), ".pdf") {
		args = append(args, "--infilter=writer_pdf_import")
	}
	args = append(args,
		"--convert-to", exportFilter(format),
		"--outdir", workDir,
		absInputPath,
	)

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	o.logger.Debug().Str("binary", o.binary).Strs("args", args).Msg("executing")
	task := execute.ExecTask{
		Command:     o.binary,
		Args:        args,
		StreamStdio: false,
	}
	res, err := task.Execute(ctx)
	if err != nil {
		return fmt.Errorf("LibreOffice failed: %w", err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("LibreOffice failed: %w", ctx.Err())
	}
	if res.ExitCode != 0 {
		o.logger.Warn().Int("exit_code", res.ExitCode).Str("stderr", res.Stderr).Msg("LibreOffice error output")
		return fmt.Errorf("LibreOffice failed: exit code %d, output: %s", res.ExitCode, strings.TrimSpace(res.Stderr+res.Stdout))
	}

	// LibreOffice names the result after the input, so find it by extension.
	matches, err := filepath.Glob(filepath.Join(workDir, "*."+format))
	if err != nil {
		return fmt.Errorf("looking for output: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("conversion succeeded but no output file found for format %s, output: %s",
			format, strings.TrimSpace(res.Stdout))
	}
	return moveFile(matches[0], outputPath)
}

// exportFilter picks the soffice --convert-to argument for a target extension.
func exportFilter(format string) string {
	switch format {
	case "docx":
		return "docx:MS Word 2007 XML"
	case "pdf":
		return "pdf:writer_pdf_Export"
	default:
		return format
	}
}

// moveFile renames src to dst, copying when they live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
