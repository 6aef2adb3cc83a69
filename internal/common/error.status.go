package common

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP Status Code Constants
const (
	// Success Codes (2xx)
	StatusOK        = 200 // Thành công
	StatusCreated   = 201 // Tạo mới thành công
	StatusAccepted  = 202 // Yêu cầu được chấp nhận
	StatusNoContent = 204 // Thành công nhưng không có nội dung trả về

	// Client Error Codes (4xx)
	StatusBadRequest         = 400 // Yêu cầu không hợp lệ
	StatusUnauthorized       = 401 // Chưa xác thực
	StatusForbidden          = 403 // Không có quyền truy cập
	StatusNotFound           = 404 // Không tìm thấy tài nguyên
	StatusMethodNotAllowed   = 405 // Phương thức HTTP không được hỗ trợ
	StatusConflict           = 409 // Xung đột dữ liệu
	StatusGone               = 410 // Tài nguyên không còn tồn tại
	StatusPreconditionFailed = 412 // Điều kiện tiên quyết không thỏa mãn
	StatusRequestTooLarge    = 413 // Dung lượng vượt quá giới hạn
	StatusUnprocessable      = 422 // Dữ liệu không qua được validation
	StatusTooManyRequests    = 429 // Quá nhiều yêu cầu

	// Server Error Codes (5xx)
	StatusInternalServerError = 500 // Lỗi server
	StatusNotImplemented      = 501 // Chức năng chưa được triển khai
	StatusBadGateway          = 502 // Gateway không hợp lệ
	StatusServiceUnavailable  = 503 // Dịch vụ không khả dụng
	StatusGatewayTimeout      = 504 // Gateway timeout
)

// Response Messages
const (
	// Success Messages
	MsgSuccess   = "Thao tác thành công"
	MsgCreated   = "Tạo mới thành công"
	MsgAccepted  = "Yêu cầu được chấp nhận"
	MsgNoContent = "Không có nội dung trả về"

	// Error Messages
	MsgBadRequest     = "Yêu cầu không hợp lệ"
	MsgUnauthorized   = "Vui lòng đăng nhập"
	MsgForbidden      = "Không có quyền truy cập"
	MsgNotFound       = "Không tìm thấy tài nguyên"
	MsgConflict       = "Xung đột dữ liệu"
	MsgGone           = "Tài nguyên không còn tồn tại"
	MsgInternalError  = "Lỗi hệ thống"
	MsgNotImplemented = "Chức năng chưa được triển khai"

	// Token Messages
	MsgTokenMissing = "Thiếu token xác thực"
	MsgTokenInvalid = "Token không hợp lệ"
	MsgTokenExpired = "Token đã hết hạn"

	// Validation Messages
	MsgValidationError = "Dữ liệu không hợp lệ"
	MsgDatabaseError   = "Lỗi tương tác với cơ sở dữ liệu"
	MsgInvalidFormat   = "Định dạng dữ liệu không hợp lệ"
)

// ErrorCode định nghĩa mã lỗi chi tiết
type ErrorCode struct {
	Code        string // Mã lỗi (ví dụ: AUTH_001)
	Category    string // Phân loại lỗi (ví dụ: Authentication)
	SubCategory string // Phân loại con (ví dụ: Token)
	Description string // Mô tả chi tiết
}

// Định nghĩa các mã lỗi theo hệ thống phân cấp
var (
	// System Errors (SYS_xxx)
	ErrCodeInternalServer = ErrorCode{
		Code:        "SYS_001",
		Category:    "System",
		SubCategory: "Internal",
		Description: "Lỗi hệ thống nội bộ",
	}

	// Authentication Errors (AUTH_xxx)
	ErrCodeAuth = ErrorCode{
		Code:        "AUTH",
		Category:    "Authentication",
		SubCategory: "General",
		Description: "Lỗi xác thực chung",
	}

	ErrCodeAuthToken = ErrorCode{
		Code:        "AUTH_001",
		Category:    "Authentication",
		SubCategory: "Token",
		Description: "Lỗi liên quan đến token",
	}

	ErrCodeAuthCredentials = ErrorCode{
		Code:        "AUTH_002",
		Category:    "Authentication",
		SubCategory: "Credentials",
		Description: "Lỗi thông tin đăng nhập",
	}

	ErrCodeAuthIdP = ErrorCode{
		Code:        "AUTH_003",
		Category:    "Authentication",
		SubCategory: "IdentityProvider",
		Description: "Lỗi giao tiếp với identity provider",
	}

	// Permission Errors (PERM_xxx)
	ErrCodePermission = ErrorCode{
		Code:        "PERM_001",
		Category:    "Permission",
		SubCategory: "General",
		Description: "Không đủ quyền trên tài nguyên",
	}

	ErrCodePermissionRole = ErrorCode{
		Code:        "PERM_002",
		Category:    "Permission",
		SubCategory: "Role",
		Description: "Thiếu role hoặc capability bắt buộc",
	}

	// Validation Errors (VAL_xxx)
	ErrCodeValidation = ErrorCode{
		Code:        "VAL",
		Category:    "Validation",
		SubCategory: "General",
		Description: "Lỗi xác thực dữ liệu chung",
	}

	ErrCodeValidationInput = ErrorCode{
		Code:        "VAL_001",
		Category:    "Validation",
		SubCategory: "Input",
		Description: "Lỗi dữ liệu đầu vào",
	}

	ErrCodeValidationFormat = ErrorCode{
		Code:        "VAL_002",
		Category:    "Validation",
		SubCategory: "Format",
		Description: "Lỗi định dạng dữ liệu",
	}

	// Database Errors (DB_xxx)
	ErrCodeDatabase = ErrorCode{
		Code:        "DB",
		Category:    "Database",
		SubCategory: "General",
		Description: "Lỗi cơ sở dữ liệu chung",
	}

	ErrCodeDatabaseConnection = ErrorCode{
		Code:        "DB_001",
		Category:    "Database",
		SubCategory: "Connection",
		Description: "Lỗi kết nối cơ sở dữ liệu",
	}

	ErrCodeDatabaseQuery = ErrorCode{
		Code:        "DB_002",
		Category:    "Database",
		SubCategory: "Query",
		Description: "Lỗi truy vấn dữ liệu",
	}

	// Storage Errors (STORE_xxx)
	ErrCodeStorage = ErrorCode{
		Code:        "STORE_001",
		Category:    "Storage",
		SubCategory: "Backend",
		Description: "Lỗi backend lưu trữ file",
	}

	ErrCodeStorageQuota = ErrorCode{
		Code:        "STORE_002",
		Category:    "Storage",
		SubCategory: "Quota",
		Description: "Vượt quá giới hạn dung lượng upload",
	}

	ErrCodeStoragePrereq = ErrorCode{
		Code:        "STORE_003",
		Category:    "Storage",
		SubCategory: "Prerequisite",
		Description: "Điều kiện tiên quyết cho thao tác storage không thỏa mãn",
	}

	// File Errors (FILE_xxx)
	ErrCodeFile = ErrorCode{
		Code:        "FILE_001",
		Category:    "File",
		SubCategory: "Document",
		Description: "Lỗi xử lý file document",
	}

	// Encoding Errors (ENC_xxx)
	ErrCodeEncoding = ErrorCode{
		Code:        "ENC_001",
		Category:    "Encoding",
		SubCategory: "Transcode",
		Description: "Lỗi pipeline transcode video",
	}

	// Organization Errors (ORG_xxx)
	ErrCodeOrganization = ErrorCode{
		Code:        "ORG_001",
		Category:    "Organization",
		SubCategory: "General",
		Description: "Lỗi nghiệp vụ organization",
	}

	ErrCodeOrganizationSeats = ErrorCode{
		Code:        "ORG_002",
		Category:    "Organization",
		SubCategory: "Seats",
		Description: "Không đủ seat trong organization",
	}

	// Node Errors (NODE_xxx)
	ErrCodeNode = ErrorCode{
		Code:        "NODE_001",
		Category:    "Node",
		SubCategory: "Content",
		Description: "Lỗi nghiệp vụ node content",
	}
)

// Error định nghĩa cấu trúc lỗi chi tiết
type Error struct {
	Code       ErrorCode // Mã lỗi chi tiết
	Message    string    // Thông báo lỗi
	StatusCode int       // HTTP status code
	Details    any       // Thông tin chi tiết thêm về lỗi
}

// Error trả về message của lỗi
func (e *Error) Error() string {
	return e.Message
}

// Is kiểm tra xem error có phải là target error không (hỗ trợ errors.Is)
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if targetErr, ok := target.(*Error); ok {
		return e.Code.Code == targetErr.Code.Code && e.Message == targetErr.Message
	}

	return false
}

// NewError tạo một error mới với đầy đủ thông tin
func NewError(code ErrorCode, message string, statusCode int, details any) error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Custom errors
var (
	// Authentication Errors
	ErrInvalidCredentials = NewError(ErrCodeAuthCredentials, "Thông tin đăng nhập không chính xác", StatusForbidden, nil)
	ErrTokenExpired       = NewError(ErrCodeAuthToken, "Phiên đăng nhập đã hết hạn", StatusUnauthorized, nil)
	ErrTokenInvalid       = NewError(ErrCodeAuthToken, "Token không hợp lệ", StatusUnauthorized, nil)
	ErrTokenMissing       = NewError(ErrCodeAuthToken, "Thiếu token xác thực", StatusUnauthorized, nil)
	ErrUserNotFound       = NewError(ErrCodeAuthCredentials, "Không tìm thấy thông tin người dùng", StatusNotFound, nil)
	ErrIdPUnavailable     = NewError(ErrCodeAuthIdP, "Không xác thực được với identity provider", StatusForbidden, nil)

	// Permission Errors
	ErrForbidden    = NewError(ErrCodePermission, "Không có quyền trên tài nguyên này", StatusForbidden, nil)
	ErrRoleRequired = NewError(ErrCodePermissionRole, "Thiếu role bắt buộc", StatusForbidden, nil)
	ErrCapRequired  = NewError(ErrCodePermissionRole, "Thiếu capability bắt buộc", StatusForbidden, nil)

	// Validation Errors
	ErrInvalidInput  = NewError(ErrCodeValidationInput, "Dữ liệu đầu vào không hợp lệ", StatusBadRequest, nil)
	ErrInvalidFormat = NewError(ErrCodeValidationFormat, "Định dạng dữ liệu không hợp lệ", StatusBadRequest, nil)
	ErrRequiredField = NewError(ErrCodeValidationInput, "Thiếu thông tin bắt buộc", StatusBadRequest, nil)
	ErrUnprocessable = NewError(ErrCodeValidationInput, "Dữ liệu không qua được validation", StatusUnprocessable, nil)

	// Database Errors
	ErrNotFound   = NewError(ErrCodeDatabaseQuery, "Không tìm thấy dữ liệu", StatusNotFound, nil)
	ErrDuplicate  = NewError(ErrCodeDatabaseQuery, "Dữ liệu đã tồn tại", StatusConflict, nil)
	ErrConnection = NewError(ErrCodeDatabaseConnection, "Lỗi kết nối cơ sở dữ liệu", StatusServiceUnavailable, nil)

	// Storage / File Errors
	ErrStorageBackend     = NewError(ErrCodeStorage, "Lỗi backend lưu trữ", StatusInternalServerError, nil)
	ErrQuotaExceeded      = NewError(ErrCodeStorageQuota, "File vượt quá dung lượng cho phép, vui lòng đăng ký subscription", StatusRequestTooLarge, nil)
	ErrPrerequisiteNotMet = NewError(ErrCodeStoragePrereq, "Điều kiện tiên quyết không thỏa mãn", StatusPreconditionFailed, nil)
	ErrBlobGone           = NewError(ErrCodeStorage, "Blob không còn tồn tại trên backend", StatusGone, nil)

	// Organization Errors
	ErrNotEnoughSeats = NewError(ErrCodeOrganizationSeats, "Organization không còn seat trống", StatusUnprocessable, nil)
	ErrNotOrgAdmin    = NewError(ErrCodeOrganization, "Chỉ admin của organization mới được thao tác", StatusForbidden, nil)

	// Node Errors
	ErrShortCodeExhausted = NewError(ErrCodeNode, "Không tạo được short code duy nhất", StatusInternalServerError, nil)
	ErrOwnCommentVote     = NewError(ErrCodeNode, "Không thể tự vote comment của chính mình", StatusForbidden, nil)
)

// IsNotFound kiểm tra lỗi có phải không-tìm-thấy-dữ-liệu không
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate kiểm tra lỗi có phải trùng dữ liệu (duplicate key) không
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// ConvertMongoError chuyển đổi lỗi MongoDB sang lỗi hệ thống
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}

	// ErrNotFound đã là lỗi hệ thống, không convert lại
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}

	var mongoErr mongo.CommandError
	if errors.As(err, &mongoErr) {
		switch {
		case mongoErr.Code >= 100 && mongoErr.Code < 200:
			return ErrConnection
		case mongoErr.Code >= 200 && mongoErr.Code < 300:
			return NewError(ErrCodeAuth, "Lỗi xác thực MongoDB", StatusUnauthorized, nil)
		default:
			return NewError(ErrCodeDatabaseQuery, MsgDatabaseError, StatusInternalServerError, err)
		}
	}

	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return ErrConnection
	}

	return NewError(ErrCodeDatabase, MsgDatabaseError, StatusInternalServerError, err)
}
