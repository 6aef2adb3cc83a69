// Package imaging xử lý ảnh và video cho pipeline file: sinh thumbnail,
// đọc metadata video qua ffprobe và tính kích thước transcode.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/armadillica/pillar-sub000/config"
	"github.com/armadillica/pillar-sub000/internal/common"

	img "github.com/disintegration/imaging"
)

// Chất lượng JPEG cho thumbnail
const thumbnailJPEGQuality = 95

// Mức nén PNG cho thumbnail có kênh alpha
const pngCompressionLevel = png.BestCompression

// ThumbnailResult là kết quả sinh một thumbnail.
type ThumbnailResult struct {
	// Data là nội dung file thumbnail đã encode
	Data []byte
	// Width, Height là kích thước thật của thumbnail
	Width  int
	Height int
	// ContentType là content type của file ("image/jpeg" hoặc "image/png")
	ContentType string
	// Extension là phần mở rộng file không có dấu chấm ("jpg" hoặc "png")
	Extension string
}

// DecodeImage decode ảnh từ stream, tự xoay theo EXIF orientation.
func DecodeImage(r io.Reader) (image.Image, error) {
	decoded, err := img.Decode(r, img.AutoOrientation(true))
	if err != nil {
		return nil, common.NewError(
			common.ErrCodeFile,
			fmt.Sprintf("Không thể decode ảnh: %v", err),
			common.StatusUnprocessable,
			err,
		)
	}
	return decoded, nil
}

// HasAlpha kiểm tra ảnh có pixel trong suốt không.
func HasAlpha(m image.Image) bool {
	type opaquer interface {
		Opaque() bool
	}
	if o, ok := m.(opaquer); ok {
		return !o.Opaque()
	}

	bounds := m.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := m.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// GenerateThumbnail sinh một thumbnail theo spec.
// Spec có Crop = true sẽ cắt ảnh lấp đầy đúng kích thước (crop từ tâm);
// ngược lại ảnh được thu nhỏ vừa khung, giữ nguyên tỉ lệ.
// Ảnh có kênh alpha được encode PNG, ngược lại JPEG.
// Ảnh gốc nhỏ hơn khung không bị phóng to.
func GenerateThumbnail(src image.Image, spec config.ThumbnailSpec) (*ThumbnailResult, error) {
	var resized *image.NRGBA
	if spec.Crop {
		resized = img.Fill(src, spec.Width, spec.Height, img.Center, img.Lanczos)
	} else {
		bounds := src.Bounds()
		if bounds.Dx() <= spec.Width && bounds.Dy() <= spec.Height {
			resized = img.Clone(src)
		} else {
			resized = img.Fit(src, spec.Width, spec.Height, img.Lanczos)
		}
	}

	return encodeThumbnail(resized, HasAlpha(src))
}

// encodeThumbnail encode ảnh thành PNG (có alpha) hoặc JPEG (không alpha)
func encodeThumbnail(m *image.NRGBA, hasAlpha bool) (*ThumbnailResult, error) {
	var buf bytes.Buffer
	var contentType, ext string
	var err error

	if hasAlpha {
		contentType, ext = "image/png", "png"
		err = img.Encode(&buf, m, img.PNG, img.PNGCompressionLevel(pngCompressionLevel))
	} else {
		contentType, ext = "image/jpeg", "jpg"
		// JPEG không có kênh alpha; encoder tự bỏ kênh alpha của NRGBA
		err = img.Encode(&buf, m, img.JPEG, img.JPEGQuality(thumbnailJPEGQuality))
	}
	if err != nil {
		return nil, common.NewError(
			common.ErrCodeFile,
			fmt.Sprintf("Không thể encode thumbnail: %v", err),
			common.StatusInternalServerError,
			err,
		)
	}

	bounds := m.Bounds()
	return &ThumbnailResult{
		Data:        buf.Bytes(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ContentType: contentType,
		Extension:   ext,
	}, nil
}
