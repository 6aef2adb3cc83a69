package encodinghdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationAllowed(t *testing.T) {
	tests := []struct {
		name       string
		debug      bool
		configured string
		received   string
		want       bool
	}{
		{"debug bỏ qua kiểm tra secret", true, "secret", "", true},
		{"debug nhận kể cả secret sai", true, "secret", "khac", true},
		{"secret khớp", false, "secret", "secret", true},
		{"secret sai", false, "secret", "khac", false},
		{"thiếu secret", false, "secret", "", false},
		{"chưa cấu hình secret thì từ chối hết", false, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notificationAllowed(tt.debug, tt.configured, tt.received))
		})
	}
}
