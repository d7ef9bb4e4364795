package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akila/convert-api/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFormatsCommand(t *testing.T) {
	out, err := run(t, "formats", "--log-level", "disabled")
	require.NoError(t, err)
	assert.Contains(t, out, "images")
	assert.Contains(t, out, "png, jpg, jpeg, webp, bmp, gif, avif")
	assert.Contains(t, out, "spreadsheets")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "convert-api dev\n", out)
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "logo.png")
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	out, err := run(t, "convert", in, "--to", "jpg", "--log-level", "disabled")
	require.NoError(t, err)

	want := filepath.Join(dir, "logo.jpg")
	assert.Contains(t, out, want)
	st, err := os.Stat(want)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}

func TestConvertRequest(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Report.PDF")
	require.NoError(t, os.WriteFile(in, []byte("%PDF-1.4"), 0o644))

	req, err := convertRequest(in, ".XLSX", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "pdf", req.InputFormat)
	assert.Equal(t, "xlsx", req.OutputFormat)
	assert.Equal(t, filepath.Join(dir, "Report.xlsx"), req.OutputPath)

	req, err = convertRequest(in, "png", "/tmp/page.png", 2)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/page.png", req.OutputPath)
	assert.Equal(t, 2, req.Page)
}

func TestConvertRequestRejects(t *testing.T) {
	dir := t.TempDir()
	noExt := filepath.Join(dir, "README")
	require.NoError(t, os.WriteFile(noExt, []byte("x"), 0o644))

	_, err := convertRequest(noExt, "pdf", "", 0)
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	_, err = convertRequest(filepath.Join(dir, "a.pdf"), "png", "", -1)
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	_, err = convertRequest(filepath.Join(dir, "missing.pdf"), "png", "", 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
