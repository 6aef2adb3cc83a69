package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"

	authrouter "github.com/armadillica/pillar-sub000/internal/api/auth/router"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	filerouter "github.com/armadillica/pillar-sub000/internal/api/file/router"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/internalapi"
	"github.com/armadillica/pillar-sub000/internal/logger"
	"github.com/armadillica/pillar-sub000/internal/storage"
	"github.com/armadillica/pillar-sub000/internal/worker"
)

// initLogger khởi tạo và cấu hình logger cho toàn bộ ứng dụng
func initLogger() {
	// Khởi tạo logger với cấu hình mặc định
	// Logger sẽ tự động đọc environment variables để cấu hình
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Log thông tin khởi tạo bằng logger mới
	log := logger.GetAppLogger()
	log.Info("Logger system initialized successfully")
}

// startWorkers chạy các background worker với recover, mỗi worker một goroutine riêng
func startWorkers(ctx context.Context) {
	log := logger.GetAppLogger()
	cfg := global.ServerConfig

	// Link refresh chỉ cần chạy cho các backend đã đăng ký
	backends := []string{storage.BackendLocal}
	if cfg.GoogleCredentialsFile != "" {
		backends = append(backends, storage.BackendGCS)
	}
	linkRefresh := worker.NewLinkRefreshWorker(backends, 0, 0, 0)
	tokenGC := worker.NewTokenGCWorker(0)

	run := func(name string, start func(context.Context)) {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(map[string]interface{}{
						"panic": r,
					}).Errorf("🔄 [WORKER] %s goroutine panic", name)
				}
			}()

			log.Infof("🔄 [WORKER] Starting %s...", name)
			start(ctx)
			log.Warnf("🔄 [WORKER] %s đã dừng (có thể do context cancelled)", name)
		}()
	}

	run("link refresh worker", linkRefresh.Start)
	run("token GC worker", tokenGC.Start)
}

// main_thread khởi tạo và chạy Fiber server
func main_thread(app *fiber.App) {
	cfg := global.ServerConfig
	log := logger.GetAppLogger()

	// Khởi động server HTTP, TLS terminate ở reverse proxy phía trước
	log.WithFields(map[string]interface{}{
		"address":  cfg.Address,
		"protocol": "HTTP",
	}).Info("Starting server with HTTP")

	listenConfig := fiber.ListenConfig{}
	if err := app.Listen(cfg.Address, listenConfig); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}
}

// Hàm main
func main() {
	// Khởi tạo logger
	initLogger()

	// Khởi tạo các biến toàn cục
	InitGlobal()

	// Khởi tạo registry
	InitRegistry()

	// Khởi tạo dữ liệu mặc định
	InitDefaultData()

	// Khởi tạo app với cấu hình, các service singleton được tạo trong lúc đăng ký route
	app := InitFiberApp()

	// Đăng ký các resource cho API nội bộ sau khi service đã sẵn sàng
	internalapi.RegisterCoreResources(
		filerouter.FileSvc(),
		authrouter.TokenSvc(),
		authsvc.NewBadgerService(authrouter.UserSvc()),
	)

	// Chạy các background worker
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startWorkers(ctx)

	// Chạy Fiber server trên main thread
	main_thread(app)
}
