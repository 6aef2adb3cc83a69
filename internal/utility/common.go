package utility

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoProtect là một hàm bao bọc (wrapper) giúp bảo vệ một hàm khác khỏi bị panic.
// Nếu xảy ra panic trong hàm f(), GoProtect sẽ bắt lại và in ra lỗi thay vì làm chương trình dừng hẳn.
func GoProtect(f func()) {
	defer func() {
		if err := recover(); err != nil {
			fmt.Printf("Đã bắt lỗi panic: %v\n", err)
		}
	}()

	f()
}

// String2ObjectID chuyển chuỗi hex thành ObjectID.
// Chuỗi không hợp lệ trả về NilObjectID; caller cần validate trước bằng primitive.IsValidObjectID.
func String2ObjectID(s string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}
