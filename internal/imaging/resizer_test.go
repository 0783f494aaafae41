package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEligible(t *testing.T) {
	cases := []struct {
		fileType string
		want     bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"image/webp", true},
		{"image/gif", false},
		{"text/plain", false},
		{"application/octet-stream", false},
		{"", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Eligible(tc.fileType), "type %q", tc.fileType)
	}
}

// writeTestPNG writes a solid-color PNG of the given size and returns
// its path.
func writeTestPNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	path := filepath.Join(dir, "src.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, m))
	require.NoError(t, f.Close())
	return path
}

func TestCreateIconCropsToExactDimensions(t *testing.T) {
	dir := t.TempDir()
	r := NewResizer(dir, Dimensions{Width: 64, Height: 64}, Dimensions{Width: 320, Height: 240})
	src := writeTestPNG(t, dir, 400, 300)

	d, err := r.CreateIcon(src)
	require.NoError(t, err)
	require.Equal(t, 64, d.Meta.Width)
	require.Equal(t, 64, d.Meta.Height)
	require.Positive(t, d.Meta.Size)
	require.NotEqual(t, src, d.Path)
	require.Equal(t, ".png", filepath.Ext(d.Path))

	info, err := os.Stat(d.Path)
	require.NoError(t, err)
	require.Equal(t, d.Meta.Size, info.Size())
}

func TestCreatePreviewFitsWithinBounds(t *testing.T) {
	dir := t.TempDir()
	r := NewResizer(dir, Dimensions{Width: 64, Height: 64}, Dimensions{Width: 320, Height: 240})
	src := writeTestPNG(t, dir, 1280, 720)

	d, err := r.CreatePreview(src)
	require.NoError(t, err)
	require.LessOrEqual(t, d.Meta.Width, 320)
	require.LessOrEqual(t, d.Meta.Height, 240)
	// Aspect ratio preserved: 16:9 source bound by width.
	require.Equal(t, 320, d.Meta.Width)
	require.Equal(t, 180, d.Meta.Height)
}

func TestCreatePreviewNeverEnlarges(t *testing.T) {
	dir := t.TempDir()
	r := NewResizer(dir, Dimensions{Width: 64, Height: 64}, Dimensions{Width: 320, Height: 240})
	src := writeTestPNG(t, dir, 100, 80)

	d, err := r.CreatePreview(src)
	require.NoError(t, err)
	require.Equal(t, 100, d.Meta.Width)
	require.Equal(t, 80, d.Meta.Height)
}

func TestResizeRejectsNonImageSource(t *testing.T) {
	dir := t.TempDir()
	r := NewResizer(dir, Dimensions{Width: 64, Height: 64}, Dimensions{Width: 320, Height: 240})
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := r.CreateIcon(path)
	require.Error(t, err)
	_, err = r.CreatePreview(path)
	require.Error(t, err)
}
