// Package basehdl - base CRUD handlers.
// Package này cung cấp các chức năng CRUD cơ bản và các tiện ích để xử lý request/response.
package basehdl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

// FilterOptions cấu hình cho việc validate filter
type FilterOptions struct {
	DeniedFields     []string // Các trường bị cấm filter
	AllowedOperators []string // Các operator MongoDB được phép
	MaxFields        int      // Số lượng field tối đa trong một filter
}

// BaseHandler là base handler cho các Fiber handler, cung cấp các chức năng CRUD cơ bản.
// Struct này sử dụng Generic Type để có thể tái sử dụng cho nhiều loại model khác nhau.
//
// Type parameters:
// - T: Kiểu dữ liệu của model
// - CreateInput: Kiểu dữ liệu của input khi tạo mới
// - UpdateInput: Kiểu dữ liệu của input khi cập nhật
type BaseHandler[T any, CreateInput any, UpdateInput any] struct {
	BaseService   basesvc.BaseServiceMongo[T] // Service xử lý logic nghiệp vụ với MongoDB
	filterOptions FilterOptions               // Cấu hình validate filter
}

// NewBaseHandler tạo mới một BaseHandler với BaseService được cung cấp
func NewBaseHandler[T any, CreateInput any, UpdateInput any](baseService basesvc.BaseServiceMongo[T]) *BaseHandler[T, CreateInput, UpdateInput] {
	return &BaseHandler[T, CreateInput, UpdateInput]{
		BaseService: baseService,
		filterOptions: FilterOptions{
			DeniedFields: []string{
				"token",
				"token_hashed",
				"password",
				"secret",
				"auth",
			},
			AllowedOperators: []string{
				"$eq",
				"$gt",
				"$gte",
				"$lt",
				"$lte",
				"$in",
				"$nin",
				"$exists",
			},
			MaxFields: 10,
		},
	}
}

// ValidateInput thực hiện validate dữ liệu đầu vào với validator từ global (struct tag validate).
func (h *BaseHandler[T, CreateInput, UpdateInput]) ValidateInput(input interface{}) error {
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusUnprocessable, err)
	}
	return nil
}

// ParseRequestBody parse và validate dữ liệu từ request body.
// Sử dụng json.Decoder với UseNumber() để xử lý chính xác các số.
//
// Parameters:
// - c: Fiber context
// - input: Con trỏ tới struct sẽ chứa dữ liệu được parse
//
// Returns:
// - error: Lỗi nếu có trong quá trình parse
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParseRequestBody(c fiber.Ctx, input interface{}) error {
	body := c.Body()
	reader := bytes.NewReader(body)
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()
	if err := decoder.Decode(input); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, common.MsgInvalidFormat, common.StatusBadRequest, err)
	}
	return nil
}

// TransformCreateInputToModel chuyển DTO tạo mới sang Model qua vòng BSON.
// Các field trùng tên bson tag được map tự động, string ObjectID hex được giữ nguyên kiểu.
func (h *BaseHandler[T, CreateInput, UpdateInput]) TransformCreateInputToModel(input *CreateInput) (*T, error) {
	return transformViaBSON[CreateInput, T](input)
}

// TransformUpdateInputToModel chuyển DTO cập nhật sang Model qua vòng BSON.
func (h *BaseHandler[T, CreateInput, UpdateInput]) TransformUpdateInputToModel(input *UpdateInput) (*T, error) {
	return transformViaBSON[UpdateInput, T](input)
}

// transformViaBSON marshal input sang BSON rồi unmarshal vào model đích.
func transformViaBSON[In any, Out any](input *In) (*Out, error) {
	raw, err := bson.Marshal(input)
	if err != nil {
		return nil, err
	}
	var out Out
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProcessFilter parse filter từ query string, normalize ObjectID và validate.
// Filter được truyền qua query param `filter` dưới dạng JSON.
func (h *BaseHandler[T, CreateInput, UpdateInput]) ProcessFilter(c fiber.Ctx) (bson.M, error) {
	filterStr := c.Query("filter", "{}")

	var filter map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader([]byte(filterStr)))
	decoder.UseNumber()
	if err := decoder.Decode(&filter); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Filter phải là JSON hợp lệ. Giá trị nhận được: %s", filterStr),
			common.StatusBadRequest,
			err,
		)
	}

	if err := h.validateFilter(filter); err != nil {
		return nil, err
	}

	return h.normalizeFilter(filter), nil
}

// normalizeFilter chuyển các giá trị đặc biệt trong filter về kiểu MongoDB:
// chuỗi hex 24 ký tự trong các trường *_id / _id thành primitive.ObjectID,
// json.Number về int64 hoặc float64.
func (h *BaseHandler[T, CreateInput, UpdateInput]) normalizeFilter(filter map[string]interface{}) bson.M {
	normalized := bson.M{}
	for key, value := range filter {
		isIDField := key == "_id" || strings.HasSuffix(key, "_id")
		normalized[key] = h.normalizeFilterValue(value, isIDField)
	}
	return normalized
}

// normalizeFilterValue normalize đệ quy một giá trị trong filter
func (h *BaseHandler[T, CreateInput, UpdateInput]) normalizeFilterValue(value interface{}, isIDField bool) interface{} {
	switch v := value.(type) {
	case string:
		if isIDField && primitive.IsValidObjectID(v) {
			oid, _ := primitive.ObjectIDFromHex(v)
			return oid
		}
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]interface{}:
		nested := bson.M{}
		for key, val := range v {
			// Operator ($in, $gte, ...) giữ nguyên ngữ cảnh ID của field cha
			nestedIsID := isIDField || key == "_id" || strings.HasSuffix(key, "_id")
			nested[key] = h.normalizeFilterValue(val, nestedIsID)
		}
		return nested
	case []interface{}:
		arr := make(bson.A, len(v))
		for i, item := range v {
			arr[i] = h.normalizeFilterValue(item, isIDField)
		}
		return arr
	default:
		return v
	}
}

// validateFilter kiểm tra filter không chạm vào trường cấm và chỉ dùng operator được phép
func (h *BaseHandler[T, CreateInput, UpdateInput]) validateFilter(filter map[string]interface{}) error {
	if len(filter) > h.filterOptions.MaxFields {
		return common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Filter chỉ được chứa tối đa %d trường", h.filterOptions.MaxFields),
			common.StatusBadRequest,
			nil,
		)
	}

	for key, value := range filter {
		for _, denied := range h.filterOptions.DeniedFields {
			if key == denied || strings.HasSuffix(key, "."+denied) {
				return common.NewError(
					common.ErrCodeValidationInput,
					fmt.Sprintf("Không được phép filter theo trường '%s'", key),
					common.StatusBadRequest,
					nil,
				)
			}
		}

		if nested, ok := value.(map[string]interface{}); ok {
			for op := range nested {
				if !strings.HasPrefix(op, "$") {
					continue
				}
				allowed := false
				for _, a := range h.filterOptions.AllowedOperators {
					if op == a {
						allowed = true
						break
					}
				}
				if !allowed {
					return common.NewError(
						common.ErrCodeValidationInput,
						fmt.Sprintf("Operator '%s' không được hỗ trợ trong filter", op),
						common.StatusBadRequest,
						nil,
					)
				}
			}
		}
	}
	return nil
}

// mongoOptionsInput là cấu trúc options truy vấn nhận từ query string
type mongoOptionsInput struct {
	Projection map[string]interface{} `json:"projection"`
	Sort       map[string]interface{} `json:"sort"`
	Limit      *int64                 `json:"limit"`
	Skip       *int64                 `json:"skip"`
}

// processMongoOptions parse options truy vấn từ query param `options` (JSON).
// isFindOne = true trả về *options.FindOneOptions, ngược lại *options.FindOptions.
func (h *BaseHandler[T, CreateInput, UpdateInput]) processMongoOptions(c fiber.Ctx, isFindOne bool) (interface{}, error) {
	optionsStr := c.Query("options", "{}")

	var input mongoOptionsInput
	if err := json.Unmarshal([]byte(optionsStr), &input); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Options phải là JSON hợp lệ. Giá trị nhận được: %s", optionsStr),
			common.StatusBadRequest,
			err,
		)
	}

	projection := toSortDocument(input.Projection)
	sort := toSortDocument(input.Sort)

	if isFindOne {
		opts := mongoopts.FindOne()
		if projection != nil {
			opts.SetProjection(projection)
		}
		if sort != nil {
			opts.SetSort(sort)
		}
		return opts, nil
	}

	opts := mongoopts.Find()
	if projection != nil {
		opts.SetProjection(projection)
	}
	if sort != nil {
		opts.SetSort(sort)
	}
	if input.Limit != nil && *input.Limit > 0 {
		opts.SetLimit(*input.Limit)
	}
	if input.Skip != nil && *input.Skip > 0 {
		opts.SetSkip(*input.Skip)
	}
	return opts, nil
}

// toSortDocument chuyển map JSON {"field": 1} thành bson.D với giá trị int
func toSortDocument(m map[string]interface{}) bson.D {
	if len(m) == 0 {
		return nil
	}
	doc := bson.D{}
	for key, value := range m {
		order := 1
		switch v := value.(type) {
		case float64:
			order = int(v)
		case int:
			order = v
		case json.Number:
			if i, err := v.Int64(); err == nil {
				order = int(i)
			}
		}
		doc = append(doc, bson.E{Key: key, Value: order})
	}
	return doc
}

// ParsePagination parse page và limit từ query string với giá trị mặc định an toàn
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParsePagination(c fiber.Ctx) (int64, int64) {
	page, err := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 10
	}
	return page, limit
}

// GetIDFromContext lấy tham số :id từ URI params
func (h *BaseHandler[T, CreateInput, UpdateInput]) GetIDFromContext(c fiber.Ctx) string {
	return c.Params("id")
}
