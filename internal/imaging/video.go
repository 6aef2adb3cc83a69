package imaging

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Thời gian tối đa cho một lần chạy ffprobe
const ffprobeTimeout = 10 * time.Second

// VideoInfo là metadata đọc được từ một file video.
type VideoInfo struct {
	Width    int
	Height   int
	Duration float64 // giây
}

// ffprobeOutput là cấu trúc JSON mà ffprobe trả về (chỉ các field cần dùng)
type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeVideo đọc kích thước và thời lượng video bằng ffprobe.
// Lỗi ffprobe không chặn pipeline xử lý file: trả về VideoInfo zero và log warning.
func ProbeVideo(ctx context.Context, ffprobeBin string, filePath string) VideoInfo {
	ctx, cancel := context.WithTimeout(ctx, ffprobeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobeBin,
		"-v", "error",
		"-show_streams",
		"-show_format",
		"-of", "json",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"file":  filePath,
			"error": err,
		}).Warn("⚠️ [IMAGING] ffprobe thất bại, bỏ qua metadata video")
		return VideoInfo{}
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		logrus.WithFields(logrus.Fields{
			"file":  filePath,
			"error": err,
		}).Warn("⚠️ [IMAGING] Không parse được output của ffprobe")
		return VideoInfo{}
	}

	var info VideoInfo
	for _, stream := range probe.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}
	if probe.Format.Duration != "" {
		if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			info.Duration = dur
		}
	}
	return info
}
