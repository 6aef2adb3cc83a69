package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng:
// kết nối cơ sở dữ liệu, storage backend, identity provider và pipeline media.
type Configuration struct {
	Debug   bool   `env:"DEBUG" envDefault:"false"`   // Chế độ debug (nới lỏng một số check bảo mật)
	Testing bool   `env:"TESTING" envDefault:"false"` // Chế độ test (fake transcode job, sort ACL output)
	Address string `env:"ADDRESS" envDefault:":8080"` // Địa chỉ server
	Scheme  string `env:"SCHEME" envDefault:"https"`  // Scheme dùng khi build URL tuyệt đối
	// ServerName dùng khi build URL tuyệt đối (ví dụ link file local)
	ServerName string `env:"SERVER_NAME" envDefault:"localhost:8080"`

	// MongoDB
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"` // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`         // Tên cơ sở dữ liệu

	// CORS / Rate limit
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// Storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"local"` // Backend mặc định cho file mới (local, gcs)
	StorageDir     string `env:"STORAGE_DIR" envDefault:"./storage"` // Thư mục gốc cho local storage và temp files
	// Validity (giây) của link đã generate, theo từng backend
	FileLinkValidityLocal int64 `env:"FILE_LINK_VALIDITY_LOCAL" envDefault:"3600"`
	FileLinkValidityGCS   int64 `env:"FILE_LINK_VALIDITY_GCS" envDefault:"82800"` // 23h, ngắn hơn 24h của signed URL

	// Google Cloud Storage
	GoogleCredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"` // Đường dẫn service account JSON

	// Upload quota
	FilesizeLimitBytesNonSubs int64  `env:"FILESIZE_LIMIT_BYTES_NONSUBS" envDefault:"33554432"` // 32 MiB
	RolesForUnlimitedUploads  string `env:"ROLES_FOR_UNLIMITED_UPLOADS" envDefault:"subscriber,demo,admin"`
	FullFileAccessRoles       string `env:"FULL_FILE_ACCESS_ROLES" envDefault:"admin,subscriber,demo"`

	// Media pipeline
	BinFfprobe                  string `env:"BIN_FFPROBE" envDefault:"ffprobe"`
	BinFfmpeg                   string `env:"BIN_FFMPEG" envDefault:"ffmpeg"`
	EncodingBackend             string `env:"ENCODING_BACKEND" envDefault:"zencoder"`
	ZencoderAPIKey              string `env:"ZENCODER_API_KEY"`
	ZencoderNotificationsSecret string `env:"ZENCODER_NOTIFICATIONS_SECRET"`
	ZencoderNotificationsURL    string `env:"ZENCODER_NOTIFICATIONS_URL"`

	// Identity provider
	BlenderIDEndpoint    string `env:"BLENDER_ID_ENDPOINT" envDefault:"https://www.blender.org/id"`
	BlenderIDSubclientID string `env:"BLENDER_ID_SUBCLIENT_ID"`
	TLSCertFile          string `env:"TLS_CERT_FILE"` // CA bundle cho outbound TLS (rỗng = system roots)
	// HMAC key để hash token trước khi lưu
	AuthTokenHMACKey string `env:"AUTH_TOKEN_HMAC_KEY,required"`

	// Short code sharing
	ShortCodeLength  int    `env:"SHORT_CODE_LENGTH" envDefault:"6"`
	ShortLinkBaseURL string `env:"SHORT_LINK_BASE_URL" envDefault:"https://blender.cloud/r/"`

	// Organizations / IP ranges: prefix tối thiểu được chấp nhận
	OrgsIPRangeMinPrefixV4 int `env:"ORGS_IPRANGE_MIN_PREFIX_V4" envDefault:"8"`
	OrgsIPRangeMinPrefixV6 int `env:"ORGS_IPRANGE_MIN_PREFIX_V6" envDefault:"40"`

	// Project chính của platform (dùng cho home project defaults)
	MainProjectID string `env:"MAIN_PROJECT_ID"`
}

// LinkValidity trả về thời gian hiệu lực của link theo backend.
// Backend không có cấu hình riêng dùng validity của local.
func (c *Configuration) LinkValidity(backend string) time.Duration {
	switch backend {
	case "gcs":
		return time.Duration(c.FileLinkValidityGCS) * time.Second
	default:
		return time.Duration(c.FileLinkValidityLocal) * time.Second
	}
}

// UnlimitedUploadRoles trả về danh sách roles không bị giới hạn dung lượng upload.
func (c *Configuration) UnlimitedUploadRoles() []string {
	return splitTrim(c.RolesForUnlimitedUploads)
}

// FileAccessRoles trả về danh sách roles được truy cập file đầy đủ (link không bị strip).
func (c *Configuration) FileAccessRoles() []string {
	return splitTrim(c.FullFileAccessRoles)
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ThumbnailSpec mô tả một size thumbnail cần generate cho ảnh upload.
type ThumbnailSpec struct {
	Width  int
	Height int
	Crop   bool // true: center-crop về đúng kích thước; false: fit trong khung giữ aspect ratio
}

// ThumbnailSizes là mapping size-name → spec, theo thứ tự ổn định trong ThumbnailSizeNames.
// Size "t" được đánh dấu public khi lưu variation.
var (
	ThumbnailSizeNames = []string{"s", "b", "t", "m", "l", "h"}

	ThumbnailSizes = map[string]ThumbnailSpec{
		"s": {Width: 90, Height: 90, Crop: true},
		"b": {Width: 160, Height: 160, Crop: true},
		"t": {Width: 160, Height: 160, Crop: false},
		"m": {Width: 320, Height: 240, Crop: false},
		"l": {Width: 1024, Height: 1024, Crop: false},
		"h": {Width: 2048, Height: 2048, Crop: false},
	}
)

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env bằng cách đi lên từ thư mục hiện tại
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", env))
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env theo GO_ENV
func NewConfig() *Configuration {
	envPath := getEnvPath()
	if envPath == "" {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không tìm thấy thư mục config/env\n")
		return nil
	}

	err := godotenv.Load(envPath)
	if err != nil {
		fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		return nil
	}

	cfg := Configuration{}
	err = env.Parse(&cfg)
	if err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}
