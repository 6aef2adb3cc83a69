// Package filehdl - handler HTTP cho domain file.
package filehdl

import (
	"mime"
	"path/filepath"

	"github.com/gofiber/fiber/v3"
	"github.com/valyala/fasthttp"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "github.com/armadillica/pillar-sub000/internal/api/base/handler"
	filedto "github.com/armadillica/pillar-sub000/internal/api/file/dto"
	models "github.com/armadillica/pillar-sub000/internal/api/file/models"
	filesvc "github.com/armadillica/pillar-sub000/internal/api/file/service"
	"github.com/armadillica/pillar-sub000/internal/api/middleware"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/storage"
	"github.com/armadillica/pillar-sub000/internal/utility"
)

// FileHandler xử lý route file.
type FileHandler struct {
	*basehdl.BaseHandler[models.File, filedto.FileCreateInput, filedto.FileUpdateInput]
	fileService *filesvc.FileService
}

// NewFileHandler tạo FileHandler.
func NewFileHandler(fileService *filesvc.FileService) *FileHandler {
	return &FileHandler{
		BaseHandler: basehdl.NewBaseHandler[models.File, filedto.FileCreateInput, filedto.FileUpdateInput](fileService),
		fileService: fileService,
	}
}

// HandleStreamUpload nhận multipart upload và stream vào storage backend.
func (h *FileHandler) HandleStreamUpload(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session := middleware.GetSession(c)
		if session == nil {
			h.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}

		projectParam := c.Params("project_id")
		if !primitive.IsValidObjectID(projectParam) {
			h.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				"Thiếu field 'file' trong form upload",
				common.StatusBadRequest,
				err,
			))
			return nil
		}

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			// Browser không gửi MIME type tử tế thì đoán từ extension
			if guessed := mime.TypeByExtension(filepath.Ext(fileHeader.Filename)); guessed != "" {
				contentType = guessed
			}
		}

		stream, err := fileHeader.Open()
		if err != nil {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeFile,
				"Không mở được stream upload",
				common.StatusInternalServerError,
				err,
			))
			return nil
		}
		defer stream.Close()

		file, err := h.fileService.StreamToStorage(
			c.Context(),
			session,
			utility.String2ObjectID(projectParam),
			fileHeader.Filename,
			contentType,
			fileHeader.Size,
			stream,
		)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		basehdl.HandleSuccess(c, common.StatusCreated, fiber.Map{
			"file_id": file.ID.Hex(),
			"status":  file.Status,
			"link":    file.Link,
		})
		return nil
	})
}

// HandleGet trả về một file document, regenerate link nếu đã hết hạn.
func (h *FileHandler) HandleGet(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		idParam := h.GetIDFromContext(c)
		if !primitive.IsValidObjectID(idParam) {
			h.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		file, err := h.fileService.FindOneById(c.Context(), utility.String2ObjectID(idParam))
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if err := h.fileService.EnsureValidLink(c.Context(), &file); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, file, nil)
		return nil
	})
}

// HandleChangeBackend chuyển file sang storage backend khác (admin).
func (h *FileHandler) HandleChangeBackend(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		idParam := h.GetIDFromContext(c)
		if !primitive.IsValidObjectID(idParam) {
			h.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		var input filedto.ChangeBackendInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		err := h.fileService.ChangeStorageBackend(c.Context(), utility.String2ObjectID(idParam), input.Backend)
		h.HandleResponse(c, fiber.Map{"backend": input.Backend}, err)
		return nil
	})
}

// HandleMoveToProject chuyển file sang bucket của project khác (admin).
func (h *FileHandler) HandleMoveToProject(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		idParam := h.GetIDFromContext(c)
		if !primitive.IsValidObjectID(idParam) {
			h.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		var input filedto.MoveToProjectInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		err := h.fileService.MoveToBucket(
			c.Context(),
			utility.String2ObjectID(idParam),
			utility.String2ObjectID(input.ProjectID),
			input.SkipStorage,
		)
		h.HandleResponse(c, fiber.Map{"project_id": input.ProjectID}, err)
		return nil
	})
}

// HandleMergeProject merge toàn bộ file + node từ project nguồn sang đích (admin).
func (h *FileHandler) HandleMergeProject(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input filedto.MergeProjectInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		err := h.fileService.MergeProject(
			c.Context(),
			utility.String2ObjectID(input.SrcProjectID),
			utility.String2ObjectID(input.DestProjectID),
		)
		h.HandleResponse(c, fiber.Map{"merged": err == nil}, err)
		return nil
	})
}

// HandleOrphans liệt kê file mồ côi của một project (admin).
func (h *FileHandler) HandleOrphans(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		projectParam := c.Params("project_id")
		if !primitive.IsValidObjectID(projectParam) {
			h.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		orphans, err := h.fileService.FindOrphanFiles(c.Context(), utility.String2ObjectID(projectParam))
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		ids := make([]string, 0, len(orphans))
		for id := range orphans {
			ids = append(ids, id.Hex())
		}
		h.HandleResponse(c, fiber.Map{"orphan_files": utility.SortedStrings(ids)}, nil)
		return nil
	})
}

// HandleServeLocal phục vụ blob của backend local qua HTTP.
// Link của backend local do GetURL sinh ra trỏ về route này.
func (h *FileHandler) HandleServeLocal(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		bucketName := c.Params("bucket")
		blobName := c.Params("blob")
		if bucketName == "" || blobName == "" {
			return basehdl.HandleError(c, common.ErrInvalidInput)
		}

		bucket, err := storage.GetBucket(storage.BackendLocal, bucketName)
		if err != nil {
			return basehdl.HandleError(c, err)
		}
		blob := bucket.GetBlob(blobName)

		// Blob local phục vụ thẳng từ filesystem để có range request (tua video)
		if local, ok := blob.(*storage.LocalBlob); ok {
			fasthttp.ServeFileUncompressed(c.Context(), local.FilePath())
			return nil
		}

		stream, size, contentType, err := storage.OpenBlobStream(c.Context(), blob)
		if err != nil {
			return basehdl.HandleError(c, err)
		}

		c.Set(fiber.HeaderContentType, contentType)
		return c.SendStream(stream, int(size))
	})
}
