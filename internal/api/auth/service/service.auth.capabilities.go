// Package authsvc - ánh xạ role sang capability.
package authsvc

import (
	"sort"

	"github.com/armadillica/pillar-sub000/internal/utility"
)

// Các capability hệ thống
const (
	CapSubscriber           = "subscriber"
	CapHomeProject          = "home-project"
	CapAdmin                = "admin"
	CapVideoEncoding        = "video-encoding"
	CapViewPendingNodes     = "view-pending-nodes"
	CapEditProjectNodeTypes = "edit-project-node-types"
	CapCreateOrganization   = "create-organization"
	CapRenewSubscription    = "can-renew-subscription"
)

// roleCapabilities ánh xạ role sang tập capability.
// Quyền hạn kiểm tra theo capability chứ không theo role trực tiếp,
// nên thêm role mới chỉ cần bổ sung bảng này.
var roleCapabilities = map[string][]string{
	"subscriber": {CapSubscriber, CapHomeProject},
	"demo":       {CapSubscriber, CapHomeProject},
	// Có subscription (kể cả hết hạn) thì được tự gia hạn
	"has_subscription": {CapRenewSubscription},
	"admin": {
		CapAdmin,
		CapVideoEncoding,
		CapViewPendingNodes,
		CapEditProjectNodeTypes,
		CapCreateOrganization,
	},
	// Role tổ chức dạng "org-subscriber" cấp quyền subscriber theo IP
	"org-subscriber": {CapSubscriber, CapHomeProject},
}

// CapabilitiesForRoles trả về hợp các capability của danh sách role, đã sort để ổn định.
func CapabilitiesForRoles(roles []string) []string {
	var caps []string
	for _, role := range roles {
		caps = utility.Union(caps, roleCapabilities[role])
	}
	sort.Strings(caps)
	return caps
}
