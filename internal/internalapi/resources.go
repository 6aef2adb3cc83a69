package internalapi

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	authmodels "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	filedto "github.com/armadillica/pillar-sub000/internal/api/file/dto"
	filesvc "github.com/armadillica/pillar-sub000/internal/api/file/service"
	"github.com/armadillica/pillar-sub000/internal/common"
)

// refreshBackendInput là body của POST /files/refresh-links-for-backend
type refreshBackendInput struct {
	Backend       string `json:"backend" validate:"required,oneof=local gcs"`
	ChunkSize     int64  `json:"chunk_size" validate:"omitempty,min=1"`
	WindowSeconds int64  `json:"window_seconds" validate:"omitempty,min=1"`
}

// refreshProjectInput là body của POST /files/refresh-links-for-project
type refreshProjectInput struct {
	ProjectID     string `json:"project_id" validate:"required,objectid"`
	ChunkSize     int64  `json:"chunk_size" validate:"omitempty,min=1"`
	WindowSeconds int64  `json:"window_seconds" validate:"omitempty,min=1"`
}

// badgerInput là body của POST /users/badger
type badgerInput struct {
	Action    string `json:"action" validate:"required,oneof=grant revoke"`
	Role      string `json:"role" validate:"required"`
	UserEmail string `json:"user_email" validate:"required,email"`
}

// Mặc định cho các operation refresh link khi body không chỉ định
const (
	defaultRefreshChunkSize = 100
	defaultRefreshWindow    = time.Hour
)

// RegisterCoreResources đăng ký các resource mà worker và hook cần:
// đọc/ghi file document, refresh link theo backend/project, dọn token
// hết hạn và badger role ops. Gọi một lần khi khởi động, sau khi các
// domain service đã sẵn sàng.
func RegisterCoreResources(files *filesvc.FileService, tokens *authsvc.TokenService, badger *authsvc.BadgerService) {
	Register("GET", "/files/:id", func(ctx context.Context, req *Request) (*Response, error) {
		fileID, err := parseObjectID(req.Params["id"])
		if err != nil {
			return nil, err
		}
		file, err := files.FindOneById(ctx, fileID)
		if err != nil {
			return nil, err
		}
		if err := files.EnsureValidLink(ctx, &file); err != nil {
			return nil, err
		}
		return &Response{StatusCode: common.StatusOK, Data: file}, nil
	})

	Register("PUT", "/files/:id", func(ctx context.Context, req *Request) (*Response, error) {
		fileID, err := parseObjectID(req.Params["id"])
		if err != nil {
			return nil, err
		}
		var input filedto.FileUpdateInput
		if err := DecodeBody(req, &input); err != nil {
			return nil, err
		}
		update, err := basesvc.ToUpdateData(&input)
		if err != nil {
			return nil, err
		}
		updated, err := files.UpdateById(ctx, fileID, update)
		if err != nil {
			return nil, err
		}
		return &Response{StatusCode: common.StatusOK, Data: updated}, nil
	})

	Register("POST", "/files/refresh-links-for-backend", func(ctx context.Context, req *Request) (*Response, error) {
		var input refreshBackendInput
		if err := DecodeBody(req, &input); err != nil {
			return nil, err
		}
		chunk, window := refreshDefaults(input.ChunkSize, input.WindowSeconds)
		refreshed, err := files.RefreshLinksForBackend(ctx, input.Backend, chunk, window)
		if err != nil {
			return nil, err
		}
		return &Response{StatusCode: common.StatusOK, Data: map[string]interface{}{"refreshed": refreshed}}, nil
	})

	Register("POST", "/files/refresh-links-for-project", func(ctx context.Context, req *Request) (*Response, error) {
		var input refreshProjectInput
		if err := DecodeBody(req, &input); err != nil {
			return nil, err
		}
		projectID, err := parseObjectID(input.ProjectID)
		if err != nil {
			return nil, err
		}
		chunk, window := refreshDefaults(input.ChunkSize, input.WindowSeconds)
		if err := files.RefreshLinksForProject(ctx, projectID, chunk, window); err != nil {
			return nil, err
		}
		return &Response{StatusCode: common.StatusNoContent}, nil
	})

	Register("POST", "/tokens/gc", func(ctx context.Context, req *Request) (*Response, error) {
		deleted, err := tokens.GCExpiredTokens(ctx)
		if err != nil {
			return nil, err
		}
		return &Response{StatusCode: common.StatusOK, Data: map[string]interface{}{"deleted": deleted}}, nil
	})

	Register("POST", "/users/badger", func(ctx context.Context, req *Request) (*Response, error) {
		var input badgerInput
		if err := DecodeBody(req, &input); err != nil {
			return nil, err
		}
		var caller *authmodels.User
		if req.Session != nil {
			caller = &req.Session.User
		}
		if err := badger.DoBadger(ctx, caller, input.Action, input.Role, input.UserEmail); err != nil {
			return nil, err
		}
		return &Response{StatusCode: common.StatusNoContent}, nil
	})
}

func refreshDefaults(chunk, windowSeconds int64) (int64, time.Duration) {
	if chunk <= 0 {
		chunk = defaultRefreshChunkSize
	}
	window := defaultRefreshWindow
	if windowSeconds > 0 {
		window = time.Duration(windowSeconds) * time.Second
	}
	return chunk, window
}

func parseObjectID(value string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, common.ErrInvalidInput
	}
	return id, nil
}
