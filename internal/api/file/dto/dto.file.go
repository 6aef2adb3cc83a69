// Package filedto - DTO cho domain file.
package filedto

// FileCreateInput chỉ dùng cho CRUD admin; upload thường đi qua stream endpoint
type FileCreateInput struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	Project     string `json:"project" validate:"required,objectid"`
	Backend     string `json:"backend" validate:"required,oneof=local gcs"`
}

// FileUpdateInput cho CRUD admin
type FileUpdateInput struct {
	Filename    string `json:"filename,omitempty" bson:"filename,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Status      string `json:"status,omitempty" bson:"status,omitempty" validate:"omitempty,oneof=uploading queued_for_processing processing complete failed"`
}

// ChangeBackendInput là input chuyển file sang storage backend khác
type ChangeBackendInput struct {
	Backend string `json:"backend" validate:"required,oneof=local gcs"`
}

// MoveToProjectInput là input chuyển file sang project khác
type MoveToProjectInput struct {
	ProjectID   string `json:"project_id" validate:"required,objectid"`
	SkipStorage bool   `json:"skip_storage,omitempty"`
}

// MergeProjectInput là input merge toàn bộ file + node giữa hai project
type MergeProjectInput struct {
	SrcProjectID  string `json:"src_project_id" validate:"required,objectid"`
	DestProjectID string `json:"dest_project_id" validate:"required,objectid"`
}
