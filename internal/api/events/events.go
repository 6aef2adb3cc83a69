// Package events cung cấp event bus nội bộ cho các thay đổi dữ liệu.
// Các service phát sự kiện sau mỗi thao tác ghi; các package khác đăng ký
// handler để phản ứng (cập nhật dung lượng project, xoá cache quyền truy cập, ...).
package events

import (
	"sync"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operation là loại thao tác ghi đã xảy ra trên collection.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpUpsert Operation = "upsert"
)

// DataChangeEvent mô tả một thay đổi dữ liệu trên một collection.
type DataChangeEvent struct {
	// Tên collection bị thay đổi
	Collection string
	// Loại thao tác
	Operation Operation
	// ID của document bị thay đổi (zero nếu thao tác nhiều document)
	DocumentID primitive.ObjectID
}

// Handler là hàm xử lý sự kiện thay đổi dữ liệu.
type Handler func(evt DataChangeEvent)

var (
	mu sync.RWMutex
	// handlers theo tên collection; key "*" nhận mọi sự kiện
	handlers = make(map[string][]Handler)
)

// OnDataChanged đăng ký handler cho các thay đổi trên một collection.
// Truyền collection = "*" để nhận sự kiện của mọi collection.
func OnDataChanged(collection string, h Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[collection] = append(handlers[collection], h)
}

// EmitDataChanged phát sự kiện thay đổi dữ liệu tới các handler đã đăng ký.
// Mỗi handler chạy trong goroutine riêng với recover để một handler lỗi
// không ảnh hưởng tới request đang xử lý.
func EmitDataChanged(collection string, op Operation, documentID primitive.ObjectID) {
	evt := DataChangeEvent{
		Collection: collection,
		Operation:  op,
		DocumentID: documentID,
	}

	mu.RLock()
	targets := make([]Handler, 0, len(handlers[collection])+len(handlers["*"]))
	targets = append(targets, handlers[collection]...)
	targets = append(targets, handlers["*"]...)
	mu.RUnlock()

	for _, h := range targets {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithFields(logrus.Fields{
						"collection": collection,
						"operation":  op,
						"panic":      r,
					}).Error("❌ [EVENTS] Handler bị panic khi xử lý sự kiện thay đổi dữ liệu")
				}
			}()
			h(evt)
		}(h)
	}
}

// RoleChangeEvent mô tả thay đổi tập role của một user.
type RoleChangeEvent struct {
	UserID   primitive.ObjectID
	OldRoles []string
	NewRoles []string
}

// RoleChangeHandler là hàm xử lý sự kiện thay đổi role.
type RoleChangeHandler func(evt RoleChangeEvent)

var roleHandlers []RoleChangeHandler

// OnUserRolesChanged đăng ký handler cho thay đổi role của user
// (subscription reconciler, badger, ...).
func OnUserRolesChanged(h RoleChangeHandler) {
	mu.Lock()
	defer mu.Unlock()
	roleHandlers = append(roleHandlers, h)
}

// EmitUserRolesChanged phát sự kiện thay đổi role, mang cả tập role cũ và mới.
func EmitUserRolesChanged(userID primitive.ObjectID, oldRoles, newRoles []string) {
	evt := RoleChangeEvent{
		UserID:   userID,
		OldRoles: oldRoles,
		NewRoles: newRoles,
	}

	mu.RLock()
	targets := make([]RoleChangeHandler, len(roleHandlers))
	copy(targets, roleHandlers)
	mu.RUnlock()

	for _, h := range targets {
		go func(h RoleChangeHandler) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithFields(logrus.Fields{
						"user_id": userID.Hex(),
						"panic":   r,
					}).Error("❌ [EVENTS] Handler bị panic khi xử lý sự kiện thay đổi role")
				}
			}()
			h(evt)
		}(h)
	}
}

// Reset xoá toàn bộ handler đã đăng ký (dùng trong test).
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	handlers = make(map[string][]Handler)
	roleHandlers = nil
}
