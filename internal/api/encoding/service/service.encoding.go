// Package encodingsvc - gửi transcode job cho Zencoder và xử lý notification trả về.
package encodingsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	filemodels "github.com/armadillica/pillar-sub000/internal/api/file/models"
	filesvc "github.com/armadillica/pillar-sub000/internal/api/file/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/storage"
)

const (
	// BackendZencoder là tên backend ghi vào processing.backend
	BackendZencoder = "zencoder"

	zencoderAPIBase          = "https://app.zencoder.com/api/v2"
	zencoderRequestTimeout   = 10 * time.Second
	notificationSecretHeader = "X-Zencoder-Notification-Secret"
)

// EncodingService tạo transcode job trên Zencoder cho file video
// và cập nhật file document khi Zencoder báo kết quả.
type EncodingService struct {
	files      *filesvc.FileService
	apiBase    string
	httpClient *http.Client
}

// NewEncodingService tạo EncodingService dùng Zencoder API thật.
func NewEncodingService(files *filesvc.FileService) *EncodingService {
	return &EncodingService{
		files:   files,
		apiBase: zencoderAPIBase,
		httpClient: &http.Client{
			Timeout: zencoderRequestTimeout,
		},
	}
}

// zencoderOutputSpec là một output trong request tạo job
type zencoderOutputSpec struct {
	URL           string               `json:"url"`
	Format        string               `json:"format"`
	Width         int                  `json:"width,omitempty"`
	Height        int                  `json:"height,omitempty"`
	Notifications []zencoderNotifySpec `json:"notifications,omitempty"`
}

type zencoderNotifySpec struct {
	URL     string            `json:"url"`
	Format  string            `json:"format"`
	Headers map[string]string `json:"headers,omitempty"`
}

type zencoderJobRequest struct {
	Input   string               `json:"input"`
	Outputs []zencoderOutputSpec `json:"outputs"`
}

type zencoderJobResponse struct {
	ID int64 `json:"id"`
}

// JobCreate gửi một transcode job cho file video lên Zencoder.
// Trả về job id và tên backend để file service lưu vào processing.
func (s *EncodingService) JobCreate(ctx context.Context, file *filemodels.File) (string, string, error) {
	cfg := global.ServerConfig
	if cfg.ZencoderAPIKey == "" {
		return "", "", common.NewError(
			common.ErrCodeEncoding,
			"Chưa cấu hình ZENCODER_API_KEY, không gửi được transcode job",
			common.StatusInternalServerError,
			nil,
		)
	}
	if file.Backend != storage.BackendGCS {
		return "", "", common.NewError(
			common.ErrCodeEncoding,
			fmt.Sprintf("Backend %q không hỗ trợ transcode qua Zencoder", file.Backend),
			common.StatusPreconditionFailed,
			nil,
		)
	}

	var notifications []zencoderNotifySpec
	if cfg.ZencoderNotificationsURL != "" {
		notifications = []zencoderNotifySpec{{
			URL:    cfg.ZencoderNotificationsURL,
			Format: "json",
			Headers: map[string]string{
				notificationSecretHeader: cfg.ZencoderNotificationsSecret,
			},
		}}
	}

	outputs := make([]zencoderOutputSpec, 0, len(file.Variations))
	for i := range file.Variations {
		v := &file.Variations[i]
		outputs = append(outputs, zencoderOutputSpec{
			URL:           gcsBlobURL(file.Project.Hex(), v.FilePath),
			Format:        v.Format,
			Width:         v.Width,
			Height:        v.Height,
			Notifications: notifications,
		})
	}

	reqBody := zencoderJobRequest{
		Input:   gcsBlobURL(file.Project.Hex(), file.FilePath),
		Outputs: outputs,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", "", common.NewError(common.ErrCodeEncoding, "Không serialize được job request", common.StatusInternalServerError, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiBase+"/jobs", bytes.NewReader(payload))
	if err != nil {
		return "", "", common.NewError(common.ErrCodeEncoding, "Không tạo được request tới Zencoder", common.StatusInternalServerError, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Zencoder-Api-Key", cfg.ZencoderAPIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", common.NewError(common.ErrCodeEncoding, "Zencoder không phản hồi", common.StatusInternalServerError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", common.NewError(common.ErrCodeEncoding, "Không đọc được phản hồi của Zencoder", common.StatusInternalServerError, err)
	}
	if resp.StatusCode >= 300 {
		logrus.Warnf("⚠️ [ENCODING] Zencoder từ chối job cho file %s: HTTP %d %s",
			file.ID.Hex(), resp.StatusCode, string(body))
		return "", "", common.NewError(
			common.ErrCodeEncoding,
			fmt.Sprintf("Zencoder từ chối transcode job (HTTP %d)", resp.StatusCode),
			common.StatusInternalServerError,
			nil,
		)
	}

	var jobResp zencoderJobResponse
	if err := json.Unmarshal(body, &jobResp); err != nil {
		return "", "", common.NewError(common.ErrCodeEncoding, "Không parse được phản hồi của Zencoder", common.StatusInternalServerError, err)
	}

	jobID := strconv.FormatInt(jobResp.ID, 10)
	logrus.Infof("✅ [ENCODING] Đã tạo Zencoder job %s cho file %s (%d output)",
		jobID, file.ID.Hex(), len(outputs))
	return jobID, BackendZencoder, nil
}

// gcsBlobURL build URL dạng gcs:// mà Zencoder đọc/ghi trực tiếp trên bucket
func gcsBlobURL(bucket, blobPath string) string {
	return "gcs://" + bucket + "/" + blobPath
}
