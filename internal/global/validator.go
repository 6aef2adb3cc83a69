package global

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InitValidator khởi tạo và đăng ký các custom validator
func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("objectid", validateObjectID)
	_ = Validate.RegisterValidation("http_method", validateHTTPMethod)
	_ = Validate.RegisterValidation("org_role", validateOrgRole)
	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
}

// validateObjectID kiểm tra chuỗi có phải là ObjectID hex hợp lệ không
func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // rỗng để "required" xử lý
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

// validateHTTPMethod kiểm tra method trong ACL là HTTP verb hợp lệ
func validateHTTPMethod(fl validator.FieldLevel) bool {
	switch strings.ToUpper(fl.Field().String()) {
	case "GET", "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

// validateOrgRole kiểm tra role của organization phải có prefix "org-"
func validateOrgRole(fl validator.FieldLevel) bool {
	return strings.HasPrefix(fl.Field().String(), "org-")
}

// validateNoXSS kiểm tra XSS trong các field text do người dùng nhập
func validateNoXSS(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	dangerousPatterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"<iframe",
		"<object",
		"<embed",
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}
