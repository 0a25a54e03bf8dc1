package cli

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/face"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passphrase = "correct horse battery"

type wholeImage struct{}

func (wholeImage) Detect(img image.Image) ([]image.Rectangle, error) {
	return []image.Rectangle{img.Bounds()}, nil
}

func stubSeams(t *testing.T, pass string) {
	t.Helper()
	origPW, origDet := getPassword, newDetector
	getPassword = func(string, io.Writer) ([]byte, error) { return []byte(pass), nil }
	newDetector = func(string) (face.Detector, error) { return wholeImage{}, nil }
	t.Cleanup(func() {
		getPassword = origPW
		newDetector = origDet
	})
}

func run(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--data-dir", dataDir, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 80; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

// seedLibrary writes three red reference photos, one red match and one blue
// photo that does not match.
func seedLibrary(t *testing.T, dataDir string) {
	t.Helper()
	lib := filepath.Join(dataDir, "library")
	red := color.RGBA{R: 200, A: 255}
	for _, name := range []string{"ref1.png", "ref2.png", "ref3.png", "beach.png"} {
		writePNG(t, filepath.Join(lib, name), red)
	}
	writePNG(t, filepath.Join(lib, "sky.png"), color.RGBA{B: 200, A: 255})
}

func seedCalendar(t *testing.T, dataDir string) {
	t.Helper()
	start := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(-47 * time.Hour).UTC().Format(time.RFC3339)
	doc := fmt.Sprintf(`events:
  - id: dinner
    title: Dinner with Alex
    start: %s
    end: %s
    calendar: Personal
  - id: dentist
    title: Dentist
    start: %s
    end: %s
    calendar: Personal
`, start, end, start, end)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "calendar.yaml"), []byte(doc), 0o600))
}

// listIDs returns the vault item ids printed by `vault list`.
func listIDs(t *testing.T, dataDir string) []string {
	t.Helper()
	out, err := run(t, dataDir, "", "vault", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var ids []string
	for _, l := range lines[1:] {
		ids = append(ids, strings.Fields(l)[0])
	}
	return ids
}

func TestInit(t *testing.T) {
	stubSeams(t, passphrase)
	dir := t.TempDir()

	out, err := run(t, dir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Vault initialized.")
	assert.DirExists(t, filepath.Join(dir, "library"))
	assert.FileExists(t, filepath.Join(dir, "calendar.yaml"))

	_, err = run(t, dir, "", "init")
	require.ErrorIs(t, err, common.ErrAlreadyInitialized)
}

func TestInit_RejectsShortPassphrase(t *testing.T) {
	stubSeams(t, "short")
	_, err := run(t, t.TempDir(), "", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least")
}

func TestInit_Mismatch(t *testing.T) {
	stubSeams(t, passphrase)
	calls := 0
	getPassword = func(string, io.Writer) ([]byte, error) {
		calls++
		return []byte(fmt.Sprintf("%s-%d", passphrase, calls)), nil
	}
	_, err := run(t, t.TempDir(), "", "init")
	require.ErrorIs(t, err, errPassphraseMismatch)
}

func TestScan_RequiresInit(t *testing.T) {
	stubSeams(t, passphrase)
	_, err := run(t, t.TempDir(), "", "scan", "--name", "Alex", "--ref", "a.png,b.png,c.png")
	require.ErrorIs(t, err, common.ErrEncryptionUnavailable)
}

func TestScan_InvalidProfile(t *testing.T) {
	stubSeams(t, passphrase)
	_, err := run(t, t.TempDir(), "", "scan", "--name", "Alex", "--ref", "a.png")
	require.ErrorIs(t, err, common.ErrInvalidProfile)
}

func TestScan_WrongPassphrase(t *testing.T) {
	stubSeams(t, passphrase)
	dir := t.TempDir()
	_, err := run(t, dir, "", "init")
	require.NoError(t, err)

	getPassword = func(string, io.Writer) ([]byte, error) { return []byte("not it at all"), nil }
	_, err = run(t, dir, "", "scan", "--name", "Alex", "--ref", "a.png,b.png,c.png")
	require.ErrorIs(t, err, common.ErrWrongPassphrase)
}

func TestScan_Unauthorized(t *testing.T) {
	stubSeams(t, passphrase)
	dir := t.TempDir()
	_, err := run(t, dir, "", "init")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "calendar.yaml")))

	_, err = run(t, dir, "", "scan", "--name", "Alex", "--ref", "a.png,b.png,c.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exeraser init")
}

func TestScan_InteractiveTriage(t *testing.T) {
	stubSeams(t, passphrase)
	dir := t.TempDir()
	_, err := run(t, dir, "", "init")
	require.NoError(t, err)
	seedLibrary(t, dir)

	// four red photos match; answers: bad input, vault, delete, keep, skip, confirm
	out, err := run(t, dir, "x\nv\nd\nk\ns\ny\n",
		"scan", "--name", "Alex", "--ref", "ref1.png", "--ref", "ref2.png", "--ref", "ref3.png")
	require.NoError(t, err)

	assert.Contains(t, out, "scanning faces")
	assert.Contains(t, out, "[1/4]")
	assert.NotContains(t, out, "sky.png")
	assert.Contains(t, out, "Matches: 4  vault: 1  delete: 1  keep: 1  undecided: 1")
	assert.Contains(t, out, "Done.")

	assert.Len(t, listIDs(t, dir), 2)
}

func TestScan_DeclineApplies(t *testing.T) {
	stubSeams(t, passphrase)
	dir := t.TempDir()
	_, err := run(t, dir, "", "init")
	require.NoError(t, err)
	seedLibrary(t, dir)

	out, err := run(t, dir, "n\n", "scan", "--name", "Alex", "--ref", "ref1.png,ref2.png,ref3.png", "--decide", "vault")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing changed.")

	out, err = run(t, dir, "", "vault", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "The vault is empty.")
	assert.FileExists(t, filepath.Join(dir, "library", "beach.png"))
}

func TestEndToEnd(t *testing.T) {
	stubSeams(t, passphrase)
	dir := t.TempDir()

	_, err := run(t, dir, "", "init")
	require.NoError(t, err)
	seedLibrary(t, dir)
	seedCalendar(t, dir)

	out, err := run(t, dir, "", "scan", "--name", "alex", "--ref", "ref1.png,ref2.png,ref3.png", "--decide", "delete", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Matches: 5  vault: 0  delete: 5")
	assert.NoFileExists(t, filepath.Join(dir, "library", "beach.png"))
	assert.FileExists(t, filepath.Join(dir, "library", "sky.png"))

	cal, err := os.ReadFile(filepath.Join(dir, "calendar.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(cal), "Dinner with Alex")
	assert.Contains(t, string(cal), "Dentist")

	out, err = run(t, dir, "", "vault", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "calendar")
	assert.Contains(t, out, "beach.png")

	out, err = run(t, dir, "", "sweep")
	require.NoError(t, err)
	assert.Equal(t, "checked 5, deleted 0, reminded 0, failed 0\n", out)

	ids := listIDs(t, dir)
	require.Len(t, ids, 5)

	out, err = run(t, dir, "", "vault", "cancel", ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Deletion cancelled.")
	_, err = run(t, dir, "", "vault", "cancel", ids[0])
	require.ErrorIs(t, err, common.ErrNotFound)

	out, err = run(t, dir, "", "vault", "restore", ids[1])
	require.NoError(t, err)
	assert.Contains(t, out, "Restored as ")

	out, err = run(t, dir, "", "vault", "delete", ids[2], "--now")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted.")

	out, err = run(t, dir, "", "vault", "delete", ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Deletes after")

	assert.Len(t, listIDs(t, dir), 3)
}

func TestVaultThumbnail(t *testing.T) {
	stubSeams(t, passphrase)
	dir := t.TempDir()
	_, err := run(t, dir, "", "init")
	require.NoError(t, err)
	seedLibrary(t, dir)

	_, err = run(t, dir, "", "scan", "--name", "Alex", "--ref", "ref1.png,ref2.png,ref3.png", "--decide", "vault", "-y")
	require.NoError(t, err)

	ids := listIDs(t, dir)
	require.NotEmpty(t, ids)

	dst := filepath.Join(t.TempDir(), "thumb.jpg")
	_, err = run(t, dir, "", "vault", "thumbnail", ids[0], dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xFF, 0xD8}), "expected a JPEG")
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Build version:")
}
