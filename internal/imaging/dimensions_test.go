// Package imaging - Test tính kích thước video transcode.
package imaging

import "testing"

func TestCapVideoDimensions_KhongDoiKhiNho(t *testing.T) {
	w, h := CapVideoDimensions(1280, 720)
	if w != 1280 || h != 720 {
		t.Errorf("Video 1280x720 không được thay đổi, nhận %dx%d", w, h)
	}
}

func TestCapVideoDimensions_GioiHanChieuCao(t *testing.T) {
	// 4K 16:9 phải về đúng Full HD
	w, h := CapVideoDimensions(3840, 2160)
	if w != 1920 || h != 1080 {
		t.Errorf("Video 3840x2160 phải về 1920x1080, nhận %dx%d", w, h)
	}
}

func TestCapVideoDimensions_GioiHanChieuRong(t *testing.T) {
	// Video siêu rộng: cao không vượt giới hạn nhưng rộng có
	w, h := CapVideoDimensions(4096, 1000)
	if w > 1920 {
		t.Errorf("Chiều rộng phải <= 1920, nhận %d", w)
	}
	if w%16 != 0 {
		t.Errorf("Chiều rộng phải chia hết cho 16, nhận %d", w)
	}
	if h%8 != 0 {
		t.Errorf("Chiều cao phải chia hết cho 8, nhận %d", h)
	}
}

func TestCapVideoDimensions_LamTronTheoCodec(t *testing.T) {
	w, h := CapVideoDimensions(1918, 1078)
	if w%16 != 0 {
		t.Errorf("Chiều rộng phải chia hết cho 16, nhận %d", w)
	}
	if h%8 != 0 {
		t.Errorf("Chiều cao phải chia hết cho 8, nhận %d", h)
	}
	if w > 1918 || h > 1078 {
		t.Errorf("Kích thước không được phóng to, nhận %dx%d", w, h)
	}
}

func TestCapVideoDimensions_VideoDoc(t *testing.T) {
	// Video dọc 1080x1920: cao vượt giới hạn
	w, h := CapVideoDimensions(1080, 1920)
	if h != 1080 {
		t.Errorf("Chiều cao phải về 1080, nhận %d", h)
	}
	if w%16 != 0 {
		t.Errorf("Chiều rộng phải chia hết cho 16, nhận %d", w)
	}
}

func TestCapVideoDimensions_KichThuocKhongHopLe(t *testing.T) {
	w, h := CapVideoDimensions(0, 720)
	if w != 0 || h != 0 {
		t.Errorf("Kích thước không hợp lệ phải trả về 0x0, nhận %dx%d", w, h)
	}
}

func TestVideoSizeDescriptor(t *testing.T) {
	cases := []struct {
		width, height int
		want          string
	}{
		{1920, 1080, "1080p"},
		{1280, 720, "720p"},
		{720, 576, "576p"},
		{640, 480, "480p"},
		{2048, 1080, "2k"},
		{3840, 2160, "UHD"},
		{4096, 2160, "4k"},
		// Chiều rộng lạ thì lấy theo chiều cao
		{1440, 900, "900p"},
		{0, 0, ""},
	}
	for _, c := range cases {
		if got := VideoSizeDescriptor(c.width, c.height); got != c.want {
			t.Errorf("VideoSizeDescriptor(%d, %d) = %q, muốn %q", c.width, c.height, got, c.want)
		}
	}
}
