package worker

import (
	"context"
	"time"

	"github.com/armadillica/pillar-sub000/internal/internalapi"
	"github.com/armadillica/pillar-sub000/internal/logger"
)

// TokenGCWorker worker dọn token đã hết hạn quá lâu khỏi token store.
// Đường validate đã có lazy GC, worker này quét cả những token không
// bao giờ được dùng lại.
type TokenGCWorker struct {
	interval time.Duration // Khoảng thời gian giữa các lần chạy
}

// NewTokenGCWorker tạo mới TokenGCWorker.
// Tham số:
//   - interval: Khoảng thời gian giữa các lần chạy (mặc định: 1 giờ)
func NewTokenGCWorker(interval time.Duration) *TokenGCWorker {
	if interval < time.Minute {
		interval = time.Hour
	}
	return &TokenGCWorker{interval: interval}
}

// Start bắt đầu background worker dọn token hết hạn.
func (w *TokenGCWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("🧹 [TOKEN_GC] Starting Token GC Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🧹 [TOKEN_GC] Token GC Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🧹 [TOKEN_GC] Panic khi dọn token, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()

				resp, err := internalapi.Do(ctx, "POST", "/tokens/gc", nil, nil)
				if err != nil {
					log.WithError(err).Error("🧹 [TOKEN_GC] Failed to GC expired tokens")
					return
				}

				if data, ok := resp.Data.(map[string]interface{}); ok {
					if deleted, ok := data["deleted"].(int64); ok && deleted > 0 {
						log.WithFields(map[string]interface{}{
							"deleted": deleted,
						}).Info("🧹 [TOKEN_GC] Deleted expired tokens")
					}
				}
				// Không xóa gì thì không log (giảm log noise)
			}()
		}
	}
}
