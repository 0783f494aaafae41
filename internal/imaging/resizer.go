// Package imaging generates icon and preview derivatives for uploaded
// images.
package imaging

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	img "github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Dimensions are the target bounds of one derivative kind.
type Dimensions struct {
	Width  int
	Height int
}

// Meta describes a produced derivative file.
type Meta struct {
	Width  int
	Height int
	Size   int64
}

// Derivative is one generated file plus its metadata.
type Derivative struct {
	Path string
	Meta Meta
}

// Eligible reports whether files of the given MIME type get
// derivatives. GIFs are excluded: resizing drops animation frames.
func Eligible(fileType string) bool {
	return strings.HasPrefix(fileType, "image/") && !strings.HasSuffix(fileType, "/gif")
}

// Resizer derives icons and previews from uploaded image files,
// writing them next to the originals in the uploads directory.
type Resizer struct {
	dir     string
	icon    Dimensions
	preview Dimensions
}

// NewResizer creates a Resizer writing derivatives into dir.
func NewResizer(dir string, icon, preview Dimensions) *Resizer {
	return &Resizer{dir: dir, icon: icon, preview: preview}
}

// CreateIcon produces a derivative cropped and scaled to exactly the
// icon dimensions.
func (r *Resizer) CreateIcon(srcPath string) (Derivative, error) {
	src, err := img.Open(srcPath)
	if err != nil {
		return Derivative{}, err
	}
	icon := img.Fill(src, r.icon.Width, r.icon.Height, img.Center, img.Lanczos)
	return r.save(icon, srcPath)
}

// CreatePreview produces a derivative scaled down to fit within the
// preview dimensions, never enlarging the source.
func (r *Resizer) CreatePreview(srcPath string) (Derivative, error) {
	src, err := img.Open(srcPath)
	if err != nil {
		return Derivative{}, err
	}
	preview := img.Fit(src, r.preview.Width, r.preview.Height, img.Lanczos)
	return r.save(preview, srcPath)
}

// save writes the derivative under a fresh random name, keeping the
// source extension so the encoder and later content sniffing agree.
func (r *Resizer) save(m *image.NRGBA, srcPath string) (Derivative, error) {
	path := filepath.Join(r.dir, uuid.NewString()+filepath.Ext(srcPath))

	if err := img.Save(m, path); err != nil {
		return Derivative{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return Derivative{}, err
	}

	bounds := m.Bounds()
	return Derivative{
		Path: path,
		Meta: Meta{
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			Size:   info.Size(),
		},
	}, nil
}
