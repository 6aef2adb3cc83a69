// Package encodingdto - cấu trúc notification của transcode backend.
package encodingdto

// ZencoderNotification là payload Zencoder POST về khi job đổi trạng thái.
// Chỉ khai báo các field pipeline cần, phần còn lại của payload bị bỏ qua.
type ZencoderNotification struct {
	Job     ZencoderJob      `json:"job"`
	Input   ZencoderInput    `json:"input"`
	Outputs []ZencoderOutput `json:"outputs"`
}

// ZencoderJob chứa trạng thái tổng của job
type ZencoderJob struct {
	ID    int64  `json:"id"`
	State string `json:"state"` // pending, waiting, processing, finished, failed, cancelled
}

// ZencoderInput mô tả file nguồn của job
type ZencoderInput struct {
	State        string `json:"state"`
	DurationInMs int64  `json:"duration_in_ms"`
	ErrorMessage string `json:"error_message"`
}

// ZencoderOutput là một output đã transcode xong
type ZencoderOutput struct {
	ID              int64  `json:"id"`
	State           string `json:"state"`
	URL             string `json:"url"`
	Format          string `json:"format"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	FileSizeInBytes int64  `json:"file_size_in_bytes"`
	DurationInMs    int64  `json:"duration_in_ms"`
	MD5Checksum     string `json:"md5_checksum"`
}
