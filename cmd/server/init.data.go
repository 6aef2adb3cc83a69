package main

import (
	"context"

	authmodels "github.com/armadillica/pillar-sub000/internal/api/auth/models"
	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	"github.com/armadillica/pillar-sub000/internal/logger"
)

func InitDefaultData() {
	log := logger.GetAppLogger()
	log.Info("🔄 [INIT] Starting InitDefaultData...")

	userService, err := authsvc.NewUserService()
	if err != nil {
		log.Fatalf("Failed to initialize user service: %v", err)
	}

	// Đảm bảo các group gắn với role tồn tại trước khi user đầu tiên đăng nhập
	ctx := context.Background()
	for _, role := range []string{authmodels.RoleAdmin, authmodels.RoleDemo, authmodels.RoleSubscriber} {
		if _, err := userService.EnsureGroup(ctx, role); err != nil {
			log.Fatalf("Failed to ensure group for role %s: %v", role, err)
		}
		log.Infof("✅ [INIT] Ensured group for role %s", role)
	}

	log.Info("✅ [INIT] InitDefaultData completed successfully")
}
