// Package imaging - Test sinh thumbnail.
package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/armadillica/pillar-sub000/config"
)

// makeOpaque tạo ảnh đặc không alpha
func makeOpaque(w, h int) image.Image {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	return m
}

// makeTransparent tạo ảnh có pixel trong suốt
func makeTransparent(w, h int) image.Image {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, color.NRGBA{R: 200, G: 50, B: 50, A: uint8(x % 256)})
		}
	}
	return m
}

func TestHasAlpha(t *testing.T) {
	if HasAlpha(makeOpaque(10, 10)) {
		t.Error("Ảnh đặc không được báo có alpha")
	}
	if !HasAlpha(makeTransparent(10, 10)) {
		t.Error("Ảnh trong suốt phải báo có alpha")
	}
}

func TestGenerateThumbnail_CropDungKichThuoc(t *testing.T) {
	spec := config.ThumbnailSpec{Width: 90, Height: 90, Crop: true}
	result, err := GenerateThumbnail(makeOpaque(400, 300), spec)
	if err != nil {
		t.Fatalf("GenerateThumbnail lỗi: %v", err)
	}
	if result.Width != 90 || result.Height != 90 {
		t.Errorf("Thumbnail crop phải đúng 90x90, nhận %dx%d", result.Width, result.Height)
	}
	if result.ContentType != "image/jpeg" || result.Extension != "jpg" {
		t.Errorf("Ảnh không alpha phải encode JPEG, nhận %s/%s", result.ContentType, result.Extension)
	}
	if len(result.Data) == 0 {
		t.Error("Thumbnail không có dữ liệu")
	}
}

func TestGenerateThumbnail_FitGiuTiLe(t *testing.T) {
	spec := config.ThumbnailSpec{Width: 160, Height: 160, Crop: false}
	result, err := GenerateThumbnail(makeOpaque(400, 200), spec)
	if err != nil {
		t.Fatalf("GenerateThumbnail lỗi: %v", err)
	}
	// 400x200 fit vào 160x160 → 160x80
	if result.Width != 160 || result.Height != 80 {
		t.Errorf("Thumbnail fit phải là 160x80, nhận %dx%d", result.Width, result.Height)
	}
}

func TestGenerateThumbnail_KhongPhongToAnhNho(t *testing.T) {
	spec := config.ThumbnailSpec{Width: 1024, Height: 1024, Crop: false}
	result, err := GenerateThumbnail(makeOpaque(50, 40), spec)
	if err != nil {
		t.Fatalf("GenerateThumbnail lỗi: %v", err)
	}
	if result.Width != 50 || result.Height != 40 {
		t.Errorf("Ảnh nhỏ hơn khung không được phóng to, nhận %dx%d", result.Width, result.Height)
	}
}

func TestGenerateThumbnail_AlphaRaPNG(t *testing.T) {
	spec := config.ThumbnailSpec{Width: 90, Height: 90, Crop: true}
	result, err := GenerateThumbnail(makeTransparent(300, 300), spec)
	if err != nil {
		t.Fatalf("GenerateThumbnail lỗi: %v", err)
	}
	if result.ContentType != "image/png" || result.Extension != "png" {
		t.Errorf("Ảnh có alpha phải encode PNG, nhận %s/%s", result.ContentType, result.Extension)
	}
}
