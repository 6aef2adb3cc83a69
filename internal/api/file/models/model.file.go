// Package models - model cho domain file (file document + variations).
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái lifecycle của file
const (
	StatusUploading           = "uploading"
	StatusQueuedForProcessing = "queued_for_processing"
	StatusProcessing          = "processing"
	StatusComplete            = "complete"
	StatusFailed              = "failed"
)

// Trạng thái của processing job (transcode)
const (
	ProcessingPending    = "pending"
	ProcessingProcessing = "processing"
	ProcessingFinished   = "finished"
	ProcessingFailed     = "failed"
)

// FileVariation là một bản phái sinh của file gốc: thumbnail của ảnh
// hoặc một output transcode của video.
type FileVariation struct {
	Size        string  `json:"size,omitempty" bson:"size,omitempty"`       // s, b, t, m, l, h cho ảnh; 720p, 1080p... cho video
	Format      string  `json:"format,omitempty" bson:"format,omitempty"`   // jpg, mp4, webm...
	ContentType string  `json:"content_type" bson:"content_type"`
	FilePath    string  `json:"file_path,omitempty" bson:"file_path,omitempty"`
	Link        string  `json:"link,omitempty" bson:"link,omitempty"`
	Length      int64   `json:"length" bson:"length"`
	Width       int     `json:"width,omitempty" bson:"width,omitempty"`
	Height      int     `json:"height,omitempty" bson:"height,omitempty"`
	Duration    float64 `json:"duration,omitempty" bson:"duration,omitempty"` // Giây, chỉ có với video
	MD5         string  `json:"md5,omitempty" bson:"md5,omitempty"`
	IsPublic    bool    `json:"is_public,omitempty" bson:"is_public,omitempty"` // Link không cần sign
}

// Processing theo dõi transcode job của file video
type Processing struct {
	JobID   string `json:"job_id,omitempty" bson:"job_id,omitempty"`
	Backend string `json:"backend,omitempty" bson:"backend,omitempty"` // zencoder, local
	Status  string `json:"status,omitempty" bson:"status,omitempty"`
}

// File là một file document: metadata + vị trí trên storage backend + variations.
// Name là tên nội bộ (uuid-based) trên storage, Filename là tên gốc user upload.
type File struct {
	ID                     primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Name                   string              `json:"name" bson:"name"`
	Filename               string              `json:"filename" bson:"filename"`
	Description            string              `json:"description,omitempty" bson:"description,omitempty"`
	ContentType            string              `json:"content_type" bson:"content_type"`
	Length                 int64               `json:"length" bson:"length"`
	LengthAggregateInBytes int64               `json:"length_aggregate_in_bytes,omitempty" bson:"length_aggregate_in_bytes,omitempty"`
	MD5                    string              `json:"md5,omitempty" bson:"md5,omitempty"`
	User                   primitive.ObjectID  `json:"user" bson:"user" index:"single"`
	Project                primitive.ObjectID  `json:"project" bson:"project" index:"single"`
	Backend                string              `json:"backend" bson:"backend" index:"single"` // local, gcs
	FilePath               string              `json:"file_path,omitempty" bson:"file_path,omitempty"`
	Link                   string              `json:"link,omitempty" bson:"link,omitempty"`
	LinkExpires            *time.Time          `json:"link_expires,omitempty" bson:"link_expires,omitempty" index:"single"`
	Width                  int                 `json:"width,omitempty" bson:"width,omitempty"`
	Height                 int                 `json:"height,omitempty" bson:"height,omitempty"`
	Duration               float64             `json:"duration,omitempty" bson:"duration,omitempty"`
	Status                 string              `json:"status,omitempty" bson:"status,omitempty"`
	Variations             []FileVariation     `json:"variations,omitempty" bson:"variations,omitempty"`
	Processing             *Processing         `json:"processing,omitempty" bson:"processing,omitempty"`
	CreatedAt              time.Time           `json:"created_at" bson:"_created"`
	UpdatedAt              time.Time           `json:"updated_at" bson:"_updated"`
	Etag                   string              `json:"etag,omitempty" bson:"_etag,omitempty"`
}

// ContentTypeMajor trả về phần major của MIME type ("image/png" → "image")
func (f *File) ContentTypeMajor() string {
	major, _, _ := strings.Cut(f.ContentType, "/")
	return major
}

// VariationBySize tìm variation theo size name
func (f *File) VariationBySize(size string) *FileVariation {
	for i := range f.Variations {
		if f.Variations[i].Size == size {
			return &f.Variations[i]
		}
	}
	return nil
}

// AggregateLength tính tổng kích thước file gốc + mọi variation
func (f *File) AggregateLength() int64 {
	total := f.Length
	for i := range f.Variations {
		total += f.Variations[i].Length
	}
	return total
}
