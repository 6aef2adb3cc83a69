package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/armadillica/pillar-sub000/config"
	authmodels "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	filemodels "github.com/armadillica/pillar-sub000/internal/api/file/models"
	nodemodels "github.com/armadillica/pillar-sub000/internal/api/node/models"
	orgmodels "github.com/armadillica/pillar-sub000/internal/api/organization/models"
	projectmodels "github.com/armadillica/pillar-sub000/internal/api/project/models"
	"github.com/armadillica/pillar-sub000/internal/database"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/storage"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
	initStorageBackends()  // Khởi tạo các storage backend
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.MongoDB_ColNames.Users = "users"
	global.MongoDB_ColNames.Tokens = "tokens"
	global.MongoDB_ColNames.Groups = "groups"
	global.MongoDB_ColNames.Organizations = "organizations"
	global.MongoDB_ColNames.Projects = "projects"
	global.MongoDB_ColNames.Nodes = "nodes"
	global.MongoDB_ColNames.Files = "files"
	global.MongoDB_ColNames.Activities = "activities"

	logrus.Info("Initialized collection names") // Ghi log thông báo đã khởi tạo tên các collection
}

// Hàm khởi tạo validator (dùng global.InitValidator để đăng ký custom validators: objectid, http_method, org_role, no_xss)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator") // Ghi log thông báo đã khởi tạo validator
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.ServerConfig = config.NewConfig()
	if global.ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil") // Ghi log lỗi nếu khởi tạo cấu hình thất bại
	}
	logrus.Info("Initialized server config") // Ghi log thông báo đã khởi tạo cấu hình server
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err) // Ghi log lỗi nếu kết nối database thất bại
	}
	logrus.Info("Connected to MongoDB") // Ghi log thông báo đã kết nối database thành công

	// Khởi tạo các db và collections nếu chưa có
	if err := database.EnsureDatabaseAndCollections(global.MongoDB_Session); err != nil {
		logrus.Fatalf("Failed to ensure database and collections: %v", err)
	}
	logrus.Info("Ensured database and collections") // Ghi log thông báo đã đảm bảo database và các collection

	// Khởi tạo các index cho các collection theo tag `index` trên model.
	// Collection activities chỉ được quét khi tìm file mồ côi, không cần index riêng.
	db := global.MongoDB_Session.Database(global.ServerConfig.MongoDB_DBName)
	indexModels := map[string]interface{}{
		global.MongoDB_ColNames.Users:         authmodels.User{},
		global.MongoDB_ColNames.Tokens:        authmodels.Token{},
		global.MongoDB_ColNames.Groups:        authmodels.Group{},
		global.MongoDB_ColNames.Organizations: orgmodels.Organization{},
		global.MongoDB_ColNames.Projects:      projectmodels.Project{},
		global.MongoDB_ColNames.Nodes:         nodemodels.Node{},
		global.MongoDB_ColNames.Files:         filemodels.File{},
	}
	for colName, model := range indexModels {
		if err := database.CreateIndexes(context.TODO(), db.Collection(colName), model); err != nil {
			logrus.Fatalf("Failed to create indexes for collection %s: %v", colName, err)
		}
	}
	logrus.Info("Created indexes for all collections")
}

// initStorageBackends đăng ký các storage backend theo cấu hình.
// Backend local luôn có mặt; GCS chỉ đăng ký khi có credentials.
func initStorageBackends() {
	cfg := global.ServerConfig

	// Link của local blob trỏ về route serve file của chính server này
	serveURLPrefix := fmt.Sprintf("%s://%s/api/v1/storage/file", cfg.Scheme, cfg.ServerName)
	localBackend, err := storage.NewLocalBackend(cfg.StorageDir, serveURLPrefix)
	if err != nil {
		logrus.Fatalf("Failed to initialize local storage backend: %v", err)
	}
	storage.RegisterBackend(localBackend)
	logrus.Infof("Registered local storage backend at %s", cfg.StorageDir)

	if cfg.GoogleCredentialsFile != "" {
		gcsBackend, err := storage.NewGCSBackend(context.Background(), cfg.GoogleCredentialsFile)
		if err != nil {
			logrus.Fatalf("Failed to initialize GCS storage backend: %v", err)
		}
		storage.RegisterBackend(gcsBackend)
		logrus.Info("Registered GCS storage backend")
	} else if cfg.StorageBackend == storage.BackendGCS {
		logrus.Fatalf("STORAGE_BACKEND=gcs nhưng thiếu GOOGLE_APPLICATION_CREDENTIALS")
	} else {
		logrus.Info("GCS credentials not configured, skipping GCS backend")
	}
}
