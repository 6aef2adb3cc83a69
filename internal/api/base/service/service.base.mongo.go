// Package basesvc cung cấp base service generic thao tác với MongoDB.
// Mọi document đi qua layer này đều được gắn metadata phiên bản:
// _created, _updated (datetime UTC) và _etag (chuỗi hex ngẫu nhiên, đổi sau mỗi lần ghi).
package basesvc

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/armadillica/pillar-sub000/internal/api/events"
	basemodels "github.com/armadillica/pillar-sub000/internal/api/base/models"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ==========================================================================
// UPDATE DATA - cấu trúc dữ liệu cập nhật
// ==========================================================================

// UpdateData chứa các phần của một lệnh update MongoDB.
// Service tự động thêm _updated và _etag vào Set trước khi ghi.
type UpdateData struct {
	Set         bson.M `json:"set,omitempty"`         // Các trường cần set ($set)
	UnSet       bson.M `json:"unset,omitempty"`       // Các trường cần xoá ($unset)
	SetOnInsert bson.M `json:"setOnInsert,omitempty"` // Các trường chỉ set khi insert ($setOnInsert)
	Push        bson.M `json:"push,omitempty"`        // Thêm phần tử vào mảng ($push)
	AddToSet    bson.M `json:"addToSet,omitempty"`    // Thêm phần tử duy nhất vào mảng ($addToSet)
}

// ToBSON chuyển UpdateData thành document update MongoDB.
func (u *UpdateData) ToBSON() bson.M {
	update := bson.M{}
	if len(u.Set) > 0 {
		update["$set"] = u.Set
	}
	if len(u.UnSet) > 0 {
		update["$unset"] = u.UnSet
	}
	if len(u.SetOnInsert) > 0 {
		update["$setOnInsert"] = u.SetOnInsert
	}
	if len(u.Push) > 0 {
		update["$push"] = u.Push
	}
	if len(u.AddToSet) > 0 {
		update["$addToSet"] = u.AddToSet
	}
	return update
}

// ToUpdateData chuyển một model struct thành UpdateData.
// Các trường zero-value bị loại bỏ để update không ghi đè dữ liệu cũ bằng giá trị rỗng.
// _id và metadata phiên bản (_created, _updated, _etag) không bao giờ nằm trong Set.
func ToUpdateData(model interface{}) (*UpdateData, error) {
	doc, err := utility.ToBSONMap(model)
	if err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Không thể chuyển model thành dữ liệu cập nhật: %v", err),
			common.StatusBadRequest,
			err,
		)
	}

	set := bson.M{}
	for key, value := range doc {
		switch key {
		case "_id", "_created", "_updated", "_etag":
			continue
		}
		if isZeroValue(value) {
			continue
		}
		set[key] = value
	}

	return &UpdateData{Set: set}, nil
}

// isZeroValue kiểm tra một giá trị BSON có phải zero-value không
func isZeroValue(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case primitive.ObjectID:
		return v.IsZero()
	case primitive.DateTime:
		return v == 0
	case bson.M:
		return len(v) == 0
	case bson.A:
		return len(v) == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

// ==========================================================================
// BASE SERVICE INTERFACE
// ==========================================================================

// BaseServiceMongo định nghĩa các thao tác CRUD cơ bản với MongoDB.
// Sử dụng Generic Type để tái sử dụng cho nhiều loại model khác nhau.
type BaseServiceMongo[T any] interface {
	// Thao tác thêm mới
	InsertOne(ctx context.Context, data T) (T, error)
	InsertMany(ctx context.Context, data []T) ([]T, error)

	// Thao tác truy vấn
	FindOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (T, error)
	FindOneById(ctx context.Context, id primitive.ObjectID) (T, error)
	FindManyByIds(ctx context.Context, ids []primitive.ObjectID) ([]T, error)
	Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error)
	FindWithPagination(ctx context.Context, filter interface{}, page int64, limit int64, opts *options.FindOptions) (*basemodels.PaginateResult[T], error)

	// Thao tác cập nhật
	UpdateOne(ctx context.Context, filter interface{}, data *UpdateData) (T, error)
	UpdateMany(ctx context.Context, filter interface{}, data *UpdateData) (int64, error)
	UpdateById(ctx context.Context, id primitive.ObjectID, data *UpdateData) (T, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, data *UpdateData, opts *options.FindOneAndUpdateOptions) (T, error)

	// Thao tác xoá
	DeleteOne(ctx context.Context, filter interface{}) error
	DeleteById(ctx context.Context, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
	FindOneAndDelete(ctx context.Context, filter interface{}) (T, error)

	// Thao tác tổng hợp
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	Distinct(ctx context.Context, fieldName string, filter interface{}) ([]interface{}, error)
	DocumentExists(ctx context.Context, filter interface{}) (bool, error)
	Upsert(ctx context.Context, filter interface{}, data T) (T, error)

	// Truy cập collection gốc cho các truy vấn đặc thù của domain service
	Collection() *mongo.Collection
}

// BaseServiceMongoImpl là implementation mặc định của BaseServiceMongo.
type BaseServiceMongoImpl[T any] struct {
	collection *mongo.Collection
}

// NewBaseServiceMongo tạo mới một BaseServiceMongoImpl với collection được cung cấp.
func NewBaseServiceMongo[T any](collection *mongo.Collection) *BaseServiceMongoImpl[T] {
	if collection == nil {
		panic("NewBaseServiceMongo: collection không được nil")
	}
	return &BaseServiceMongoImpl[T]{collection: collection}
}

// Collection trả về collection MongoDB mà service đang thao tác.
func (s *BaseServiceMongoImpl[T]) Collection() *mongo.Collection {
	return s.collection
}

// ==========================================================================
// METADATA PHIÊN BẢN DOCUMENT
// ==========================================================================

// nowUTC trả về thời điểm hiện tại UTC, cắt về millisecond (độ phân giải datetime của MongoDB).
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// stampForInsert gắn _created, _updated, _etag vào model trước khi insert.
// Model cần có các field CreatedAt/UpdatedAt (time.Time) và Etag (string);
// model không có các field này được bỏ qua.
func stampForInsert(model interface{}) {
	val := reflect.ValueOf(model)
	if val.Kind() != reflect.Ptr {
		return
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return
	}

	now := nowUTC()
	if f := val.FieldByName("CreatedAt"); f.IsValid() && f.CanSet() && f.Type() == reflect.TypeOf(time.Time{}) {
		if f.Interface().(time.Time).IsZero() {
			f.Set(reflect.ValueOf(now))
		}
	}
	if f := val.FieldByName("UpdatedAt"); f.IsValid() && f.CanSet() && f.Type() == reflect.TypeOf(time.Time{}) {
		f.Set(reflect.ValueOf(now))
	}
	if f := val.FieldByName("Etag"); f.IsValid() && f.CanSet() && f.Kind() == reflect.String {
		f.SetString(utility.RandomEtag())
	}
	if f := val.FieldByName("ID"); f.IsValid() && f.CanSet() && f.Type() == reflect.TypeOf(primitive.ObjectID{}) {
		if f.Interface().(primitive.ObjectID).IsZero() {
			f.Set(reflect.ValueOf(primitive.NewObjectID()))
		}
	}
}

// stampForUpdate thêm _updated và _etag mới vào phần $set của update.
func stampForUpdate(data *UpdateData) {
	if data.Set == nil {
		data.Set = bson.M{}
	}
	data.Set["_updated"] = nowUTC()
	data.Set["_etag"] = utility.RandomEtag()
}

// stripEmptyStrings loại bỏ các trường string rỗng khỏi document trước khi insert.
// Các index unique+sparse chỉ bỏ qua document khi trường KHÔNG tồn tại,
// chuỗi rỗng vẫn bị tính là giá trị và gây lỗi duplicate key.
func stripEmptyStrings(doc bson.M) bson.M {
	for key, value := range doc {
		if str, ok := value.(string); ok && str == "" {
			delete(doc, key)
		}
	}
	return doc
}

// extractID lấy _id từ model (zero nếu model không có field ID).
func extractID(model interface{}) primitive.ObjectID {
	val := reflect.ValueOf(model)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return primitive.NilObjectID
	}
	f := val.FieldByName("ID")
	if !f.IsValid() || f.Type() != reflect.TypeOf(primitive.ObjectID{}) {
		return primitive.NilObjectID
	}
	return f.Interface().(primitive.ObjectID)
}

// ==========================================================================
// THAO TÁC THÊM MỚI
// ==========================================================================

// InsertOne thêm mới một document, gắn metadata phiên bản và phát sự kiện.
func (s *BaseServiceMongoImpl[T]) InsertOne(ctx context.Context, data T) (T, error) {
	var zero T

	stampForInsert(&data)

	doc, err := utility.ToBSONMap(&data)
	if err != nil {
		return zero, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Không thể chuyển model thành document: %v", err),
			common.StatusBadRequest,
			err,
		)
	}
	doc = stripEmptyStrings(doc)

	result, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		return zero, common.ConvertMongoError(err)
	}

	insertedID, _ := result.InsertedID.(primitive.ObjectID)
	inserted, err := s.FindOneById(ctx, insertedID)
	if err != nil {
		return zero, err
	}

	events.EmitDataChanged(s.collection.Name(), events.OpInsert, insertedID)
	return inserted, nil
}

// InsertMany thêm mới nhiều document trong một lệnh.
func (s *BaseServiceMongoImpl[T]) InsertMany(ctx context.Context, data []T) ([]T, error) {
	if len(data) == 0 {
		return []T{}, nil
	}

	docs := make([]interface{}, 0, len(data))
	for i := range data {
		stampForInsert(&data[i])
		doc, err := utility.ToBSONMap(&data[i])
		if err != nil {
			return nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Không thể chuyển model thứ %d thành document: %v", i+1, err),
				common.StatusBadRequest,
				err,
			)
		}
		docs = append(docs, stripEmptyStrings(doc))
	}

	result, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}

	ids := make([]primitive.ObjectID, 0, len(result.InsertedIDs))
	for _, raw := range result.InsertedIDs {
		if id, ok := raw.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}

	inserted, err := s.FindManyByIds(ctx, ids)
	if err != nil {
		return nil, err
	}

	events.EmitDataChanged(s.collection.Name(), events.OpInsert, primitive.NilObjectID)
	return inserted, nil
}

// ==========================================================================
// THAO TÁC TRUY VẤN
// ==========================================================================

// FindOne tìm một document theo filter.
func (s *BaseServiceMongoImpl[T]) FindOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (T, error) {
	var result T
	err := s.collection.FindOne(ctx, normalizeFilter(filter), opts).Decode(&result)
	if err != nil {
		return result, common.ConvertMongoError(err)
	}
	return result, nil
}

// FindOneById tìm một document theo ID.
func (s *BaseServiceMongoImpl[T]) FindOneById(ctx context.Context, id primitive.ObjectID) (T, error) {
	return s.FindOne(ctx, bson.M{"_id": id}, nil)
}

// FindManyByIds tìm nhiều document theo danh sách ID.
func (s *BaseServiceMongoImpl[T]) FindManyByIds(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// Find tìm nhiều document theo filter.
func (s *BaseServiceMongoImpl[T]) Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error) {
	cursor, err := s.collection.Find(ctx, normalizeFilter(filter), opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// FindWithPagination tìm nhiều document với phân trang.
// Service tự tính skip/limit từ page và limit để đảm bảo tính nhất quán.
func (s *BaseServiceMongoImpl[T]) FindWithPagination(ctx context.Context, filter interface{}, page int64, limit int64, opts *options.FindOptions) (*basemodels.PaginateResult[T], error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	normalized := normalizeFilter(filter)

	total, err := s.collection.CountDocuments(ctx, normalized)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}

	if opts == nil {
		opts = options.Find()
	}
	opts.SetSkip((page - 1) * limit)
	opts.SetLimit(limit)

	items, err := s.Find(ctx, normalized, opts)
	if err != nil {
		return nil, err
	}

	totalPage := total / limit
	if total%limit != 0 {
		totalPage++
	}

	return &basemodels.PaginateResult[T]{
		Page:      page,
		Limit:     limit,
		ItemCount: int64(len(items)),
		Items:     items,
		Total:     total,
		TotalPage: totalPage,
	}, nil
}

// normalizeFilter đảm bảo filter nil trở thành filter rỗng
func normalizeFilter(filter interface{}) interface{} {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

// ==========================================================================
// THAO TÁC CẬP NHẬT
// ==========================================================================

// UpdateOne cập nhật một document theo filter và trả về bản ghi sau cập nhật.
func (s *BaseServiceMongoImpl[T]) UpdateOne(ctx context.Context, filter interface{}, data *UpdateData) (T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return s.FindOneAndUpdate(ctx, filter, data, opts)
}

// UpdateMany cập nhật nhiều document theo filter, trả về số lượng đã sửa.
func (s *BaseServiceMongoImpl[T]) UpdateMany(ctx context.Context, filter interface{}, data *UpdateData) (int64, error) {
	stampForUpdate(data)

	result, err := s.collection.UpdateMany(ctx, normalizeFilter(filter), data.ToBSON())
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}

	if result.ModifiedCount > 0 {
		events.EmitDataChanged(s.collection.Name(), events.OpUpdate, primitive.NilObjectID)
	}
	return result.ModifiedCount, nil
}

// UpdateById cập nhật một document theo ID.
func (s *BaseServiceMongoImpl[T]) UpdateById(ctx context.Context, id primitive.ObjectID, data *UpdateData) (T, error) {
	return s.UpdateOne(ctx, bson.M{"_id": id}, data)
}

// FindOneAndUpdate tìm và cập nhật một document trong một lệnh atomic.
func (s *BaseServiceMongoImpl[T]) FindOneAndUpdate(ctx context.Context, filter interface{}, data *UpdateData, opts *options.FindOneAndUpdateOptions) (T, error) {
	var result T

	stampForUpdate(data)

	if opts == nil {
		opts = options.FindOneAndUpdate().SetReturnDocument(options.After)
	}

	err := s.collection.FindOneAndUpdate(ctx, normalizeFilter(filter), data.ToBSON(), opts).Decode(&result)
	if err != nil {
		return result, common.ConvertMongoError(err)
	}

	events.EmitDataChanged(s.collection.Name(), events.OpUpdate, extractID(&result))
	return result, nil
}

// ==========================================================================
// THAO TÁC XOÁ
// ==========================================================================

// DeleteOne xoá một document theo filter.
func (s *BaseServiceMongoImpl[T]) DeleteOne(ctx context.Context, filter interface{}) error {
	result, err := s.collection.DeleteOne(ctx, normalizeFilter(filter))
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if result.DeletedCount == 0 {
		return common.ErrNotFound
	}

	events.EmitDataChanged(s.collection.Name(), events.OpDelete, primitive.NilObjectID)
	return nil
}

// DeleteById xoá một document theo ID.
func (s *BaseServiceMongoImpl[T]) DeleteById(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if result.DeletedCount == 0 {
		return common.ErrNotFound
	}

	events.EmitDataChanged(s.collection.Name(), events.OpDelete, id)
	return nil
}

// DeleteMany xoá nhiều document theo filter, trả về số lượng đã xoá.
func (s *BaseServiceMongoImpl[T]) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, normalizeFilter(filter))
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}

	if result.DeletedCount > 0 {
		events.EmitDataChanged(s.collection.Name(), events.OpDelete, primitive.NilObjectID)
	}
	return result.DeletedCount, nil
}

// FindOneAndDelete tìm và xoá một document, trả về bản ghi vừa xoá.
func (s *BaseServiceMongoImpl[T]) FindOneAndDelete(ctx context.Context, filter interface{}) (T, error) {
	var result T
	err := s.collection.FindOneAndDelete(ctx, normalizeFilter(filter)).Decode(&result)
	if err != nil {
		return result, common.ConvertMongoError(err)
	}

	events.EmitDataChanged(s.collection.Name(), events.OpDelete, extractID(&result))
	return result, nil
}

// ==========================================================================
// THAO TÁC TỔNG HỢP
// ==========================================================================

// CountDocuments đếm số document khớp với filter.
func (s *BaseServiceMongoImpl[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, normalizeFilter(filter))
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return count, nil
}

// Distinct trả về các giá trị duy nhất của một trường.
func (s *BaseServiceMongoImpl[T]) Distinct(ctx context.Context, fieldName string, filter interface{}) ([]interface{}, error) {
	values, err := s.collection.Distinct(ctx, fieldName, normalizeFilter(filter))
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return values, nil
}

// DocumentExists kiểm tra có document nào khớp với filter không.
func (s *BaseServiceMongoImpl[T]) DocumentExists(ctx context.Context, filter interface{}) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, normalizeFilter(filter), options.Count().SetLimit(1))
	if err != nil {
		return false, common.ConvertMongoError(err)
	}
	return count > 0, nil
}

// Upsert thêm mới hoặc cập nhật một document theo filter.
// Khi insert, _created được set qua $setOnInsert; khi update chỉ _updated/_etag đổi.
func (s *BaseServiceMongoImpl[T]) Upsert(ctx context.Context, filter interface{}, data T) (T, error) {
	var zero T

	updateData, err := ToUpdateData(&data)
	if err != nil {
		return zero, err
	}
	updateData.SetOnInsert = bson.M{"_created": nowUTC()}
	stampForUpdate(updateData)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result T
	err = s.collection.FindOneAndUpdate(ctx, normalizeFilter(filter), updateData.ToBSON(), opts).Decode(&result)
	if err != nil {
		return zero, common.ConvertMongoError(err)
	}

	events.EmitDataChanged(s.collection.Name(), events.OpUpsert, extractID(&result))
	return result, nil
}
