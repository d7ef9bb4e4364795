package converters

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akila/convert-api/logging"
	"github.com/akila/convert-api/workers"
)

// fakeSoffice mimics soffice's command line: it writes <outdir>/<input base>.<ext>.
const fakeSoffice = `#!/bin/sh
outdir=""; fmt=""; input=""
while [ $# -gt 0 ]; do
  case "$1" in
    --outdir) outdir="$2"; shift 2 ;;
    --convert-to) fmt="${2%%:*}"; shift 2 ;;
    *) input="$1"; shift ;;
  esac
done
base=$(basename "$input"); base="${base%.*}"
echo "converted $input" > "$outdir/$base.$fmt"
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not available")
	}
	path := filepath.Join(t.TempDir(), "soffice")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestLibreOfficeConvert(t *testing.T) {
	bin := writeScript(t, fakeSoffice)
	dir := t.TempDir()
	in := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(in, []byte("%PDF-1.4"), 0o644))
	out := filepath.Join(dir, "out", "report_123.docx")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))

	pool := workers.NewWorkerPool(1)
	pool.Start(context.Background())
	defer pool.Stop()

	office := NewLibreOffice(bin, 10*time.Second, pool, logging.Nop())
	require.NoError(t, office.Convert(context.Background(), in, out, "docx"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "report.pdf")
}

func TestLibreOfficeFailure(t *testing.T) {
	bin := writeScript(t, "#!/bin/sh\necho 'source file could not be loaded' >&2\nexit 3\n")
	dir := t.TempDir()
	in := filepath.Join(dir, "a.doc")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	office := NewLibreOffice(bin, 10*time.Second, nil, logging.Nop())
	err := office.Convert(context.Background(), in, filepath.Join(dir, "a.pdf"), "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LibreOffice failed")
	assert.NoFileExists(t, filepath.Join(dir, "a.pdf"))
}

func TestLibreOfficeNoOutput(t *testing.T) {
	bin := writeScript(t, "#!/bin/sh\nexit 0\n")
	dir := t.TempDir()
	in := filepath.Join(dir, "a.doc")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	office := NewLibreOffice(bin, 10*time.Second, nil, logging.Nop())
	err := office.Convert(context.Background(), in, filepath.Join(dir, "a.pdf"), "pdf")
	assert.ErrorContains(t, err, "no output file found")
}

func TestLibreOfficeTimeout(t *testing.T) {
	bin := writeScript(t, "#!/bin/sh\nexec sleep 5\n")
	dir := t.TempDir()
	in := filepath.Join(dir, "a.doc")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	office := NewLibreOffice(bin, 100*time.Millisecond, nil, logging.Nop())
	start := time.Now()
	err := office.Convert(context.Background(), in, filepath.Join(dir, "a.pdf"), "pdf")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestExportFilter(t *testing.T) {
	assert.Equal(t, "docx:MS Word 2007 XML", exportFilter("docx"))
	assert.Equal(t, "pdf:writer_pdf_Export", exportFilter("pdf"))
	assert.Equal(t, "odt", exportFilter("odt"))
}

func TestNewLibreOfficeDefaultsBinary(t *testing.T) {
	office := NewLibreOffice("", time.Second, nil, logging.Nop())
	assert.NotEmpty(t, office.Binary())
}
