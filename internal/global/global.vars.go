package global

import (
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/armadillica/pillar-sub000/config"
	"github.com/armadillica/pillar-sub000/internal/registry"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	Users         string // Tên collection cho người dùng
	Tokens        string // Tên collection cho token xác thực
	Groups        string // Tên collection cho nhóm người dùng
	Organizations string // Tên collection cho tổ chức
	Projects      string // Tên collection cho project
	Nodes         string // Tên collection cho node content
	Files         string // Tên collection cho file document
	Activities    string // Tên collection cho activity stream
}

// Các biến toàn cục
var Validate *validator.Validate                   // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client                  // Phiên kết nối tới MongoDB
var ServerConfig *config.Configuration             // Cấu hình của server
var MongoDB_ColNames = *new(MongoDB_CollectionName) // Tên các collection

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()      // Registry chứa các databases
