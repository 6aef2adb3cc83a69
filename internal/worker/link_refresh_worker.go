package worker

import (
	"context"
	"time"

	"github.com/armadillica/pillar-sub000/internal/internalapi"
	"github.com/armadillica/pillar-sub000/internal/logger"
)

// LinkRefreshWorker worker làm mới link file sắp hết hạn theo backend.
// Chạy định kỳ, mỗi lần xử lý một chunk giới hạn để không chiếm hết
// băng thông của storage backend.
type LinkRefreshWorker struct {
	backends      []string
	interval      time.Duration // Khoảng thời gian giữa các lần chạy
	chunkSize     int64         // Số file tối đa xử lý mỗi lần
	windowSeconds int64         // Cửa sổ hết hạn (giây): link hết hạn trong cửa sổ này được refresh sớm
}

// NewLinkRefreshWorker tạo mới LinkRefreshWorker.
// Tham số:
//   - backends: Danh sách backend cần refresh (local, gcs)
//   - interval: Khoảng thời gian giữa các lần chạy (mặc định: 10 phút)
//   - chunkSize: Số file tối đa mỗi đợt (mặc định: 100)
//   - window: Cửa sổ hết hạn (mặc định: 1 giờ)
func NewLinkRefreshWorker(backends []string, interval time.Duration, chunkSize int64, window time.Duration) *LinkRefreshWorker {
	// Set defaults
	if interval < time.Minute {
		interval = 10 * time.Minute
	}
	if chunkSize <= 0 {
		chunkSize = 100
	}
	if window <= 0 {
		window = time.Hour
	}

	return &LinkRefreshWorker{
		backends:      backends,
		interval:      interval,
		chunkSize:     chunkSize,
		windowSeconds: int64(window / time.Second),
	}
}

// Start bắt đầu background worker refresh link.
// Mỗi tick gọi internal API cho từng backend, lỗi một backend không
// chặn các backend còn lại.
func (w *LinkRefreshWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"backends":  w.backends,
		"interval":  w.interval.String(),
		"chunkSize": w.chunkSize,
	}).Info("🔄 [LINK_REFRESH] Starting Link Refresh Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🔄 [LINK_REFRESH] Link Refresh Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🔄 [LINK_REFRESH] Panic khi refresh link, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()

				for _, backend := range w.backends {
					resp, err := internalapi.DoJSON(ctx, "POST", "/files/refresh-links-for-backend", map[string]interface{}{
						"backend":        backend,
						"chunk_size":     w.chunkSize,
						"window_seconds": w.windowSeconds,
					}, nil)
					if err != nil {
						log.WithError(err).WithFields(map[string]interface{}{
							"backend": backend,
						}).Error("🔄 [LINK_REFRESH] Failed to refresh links")
						continue
					}

					if data, ok := resp.Data.(map[string]interface{}); ok {
						if refreshed, ok := data["refreshed"].(int); ok && refreshed > 0 {
							log.WithFields(map[string]interface{}{
								"backend":   backend,
								"refreshed": refreshed,
							}).Info("🔄 [LINK_REFRESH] Refreshed expiring links")
						}
					}
					// Không có gì để refresh thì không log (giảm log noise)
				}
			}()
		}
	}
}
