package imaging

import "fmt"

// Giới hạn kích thước video output khi transcode
const (
	maxVideoWidth  = 1920
	maxVideoHeight = 1080
)

// CapVideoDimensions thu nhỏ kích thước video cho transcode:
// giới hạn 1920×1080 giữ nguyên tỉ lệ (cao trước, rộng sau),
// sau đó làm tròn xuống rộng chia hết cho 16 và cao chia hết cho 8
// theo yêu cầu của các codec video.
func CapVideoDimensions(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}

	if height > maxVideoHeight {
		width = width * maxVideoHeight / height
		height = maxVideoHeight
	}
	if width > maxVideoWidth {
		height = height * maxVideoWidth / width
		width = maxVideoWidth
	}

	width -= width % 16
	height -= height % 8
	return width, height
}

// Tên quy ước cho các chiều rộng video phổ biến
var videoSizeByWidth = map[int]string{
	720:  "576p",
	640:  "480p",
	1280: "720p",
	1920: "1080p",
	2048: "2k",
	3840: "UHD",
	4096: "4k",
}

// VideoSizeDescriptor trả về tên size của một video output ("1080p", "4k"...).
// Chiều rộng không nằm trong danh sách quy ước thì lấy chiều cao kèm hậu tố p.
func VideoSizeDescriptor(width, height int) string {
	if name, ok := videoSizeByWidth[width]; ok {
		return name
	}
	if height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dp", height)
}
