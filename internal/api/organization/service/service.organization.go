package orgsvc

import (
	"context"
	"net"
	"strings"

	authsvc "github.com/armadillica/pillar-sub000/internal/api/auth/service"
	basesvc "github.com/armadillica/pillar-sub000/internal/api/base/service"
	models "github.com/armadillica/pillar-sub000/internal/api/organization/models"
	"github.com/armadillica/pillar-sub000/internal/common"
	"github.com/armadillica/pillar-sub000/internal/global"
	"github.com/armadillica/pillar-sub000/internal/utility"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// orgRolePrefix: mọi role do tổ chức cấp phải bắt đầu bằng prefix này
const orgRolePrefix = "org-"

// OrganizationService quản lý tổ chức: seat, thành viên, role theo IP.
// Service KHÔNG kiểm tra quyền của caller, handler chịu trách nhiệm việc đó.
type OrganizationService struct {
	*basesvc.BaseServiceMongoImpl[models.Organization]
	users *authsvc.UserService
}

// NewOrganizationService tạo OrganizationService.
func NewOrganizationService(users *authsvc.UserService) (*OrganizationService, error) {
	col, exists := global.RegistryCollections.Get(global.MongoDB_ColNames.Organizations)
	if !exists {
		return nil, common.NewError(
			common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection organizations",
			common.StatusInternalServerError,
			nil,
		)
	}
	return &OrganizationService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.Organization](col),
		users:                users,
	}, nil
}

// CreateOrganization tạo tổ chức mới với admin và seat count cho trước.
func (s *OrganizationService) CreateOrganization(ctx context.Context, name string, adminUID primitive.ObjectID, seatCount int, orgRoles []string) (models.Organization, error) {
	for _, role := range orgRoles {
		if !strings.HasPrefix(role, orgRolePrefix) {
			return models.Organization{}, common.NewError(
				common.ErrCodeValidationInput,
				"Role của tổ chức phải có prefix \"org-\"",
				common.StatusUnprocessable,
				role,
			)
		}
	}

	org := models.Organization{
		Name:      strings.TrimSpace(name),
		AdminUID:  adminUID,
		SeatCount: seatCount,
		OrgRoles:  orgRoles,
	}
	created, err := s.InsertOne(ctx, org)
	if err != nil {
		return models.Organization{}, err
	}

	logrus.WithFields(logrus.Fields{
		"org_id":    created.ID.Hex(),
		"admin_uid": adminUID.Hex(),
	}).Info("✅ [ORG] Đã tạo tổ chức mới")
	return created, nil
}

// AssignUsers gán danh sách email vào tổ chức.
// Email đã có tài khoản vào members, chưa có vào unknown_members.
func (s *OrganizationService) AssignUsers(ctx context.Context, orgID primitive.ObjectID, emails []string) (models.Organization, error) {
	// Bỏ email rỗng sau khi trim
	cleaned := make([]string, 0, len(emails))
	for _, email := range emails {
		if stripped := strings.TrimSpace(email); stripped != "" {
			cleaned = append(cleaned, strings.ToLower(stripped))
		}
	}

	known := map[primitive.ObjectID]bool{}
	unknown := map[string]bool{}
	for _, email := range cleaned {
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			if common.IsNotFound(err) {
				unknown[email] = true
				continue
			}
			return models.Organization{}, err
		}
		known[user.ID] = true
	}

	return s.assignMembers(ctx, orgID, known, unknown)
}

// AssignSingleUser gán một user đã tồn tại vào tổ chức theo user id.
func (s *OrganizationService) AssignSingleUser(ctx context.Context, orgID, userID primitive.ObjectID) (models.Organization, error) {
	if _, err := s.users.FindOneById(ctx, userID); err != nil {
		return models.Organization{}, err
	}
	return s.assignMembers(ctx, orgID, map[primitive.ObjectID]bool{userID: true}, nil)
}

// assignMembers hợp nhất thành viên mới, kiểm tra seat rồi cập nhật và refresh role
func (s *OrganizationService) assignMembers(ctx context.Context, orgID primitive.ObjectID, known map[primitive.ObjectID]bool, unknown map[string]bool) (models.Organization, error) {
	org, err := s.FindOneById(ctx, orgID)
	if err != nil {
		return models.Organization{}, err
	}

	members := make([]primitive.ObjectID, 0, len(org.Members)+len(known))
	memberSet := map[primitive.ObjectID]bool{}
	for _, m := range org.Members {
		memberSet[m] = true
		members = append(members, m)
	}
	for uid := range known {
		if !memberSet[uid] {
			members = append(members, uid)
		}
	}

	unknownMembers := make([]string, 0, len(org.UnknownMembers)+len(unknown))
	unknownSet := map[string]bool{}
	for _, email := range org.UnknownMembers {
		unknownSet[email] = true
		unknownMembers = append(unknownMembers, email)
	}
	for email := range unknown {
		if !unknownSet[email] {
			unknownMembers = append(unknownMembers, email)
		}
	}

	newSeatCount := len(members) + len(unknownMembers)
	if newSeatCount > org.SeatCount {
		logrus.WithFields(logrus.Fields{
			"org_id":     orgID.Hex(),
			"seat_count": org.SeatCount,
			"attempted":  newSeatCount,
		}).Warn("⚠️ [ORG] Không đủ seat để gán thành viên")
		return models.Organization{}, common.ErrNotEnoughSeats
	}

	updated, err := s.UpdateById(ctx, orgID, &basesvc.UpdateData{
		Set: bson.M{
			"members":         members,
			"unknown_members": unknownMembers,
		},
	})
	if err != nil {
		return models.Organization{}, err
	}

	for uid := range known {
		if err := s.RefreshRoles(ctx, uid); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": uid.Hex(),
				"error":   err,
			}).Warn("⚠️ [ORG] Không refresh được role sau khi gán thành viên")
		}
	}
	return updated, nil
}

// RemoveUser xoá user khỏi tổ chức theo user id hoặc email.
// Role org chỉ bị thu hồi khi không còn tổ chức nào khác cấp role đó.
func (s *OrganizationService) RemoveUser(ctx context.Context, orgID primitive.ObjectID, userID primitive.ObjectID, email string) (models.Organization, error) {
	// Bổ sung chiều còn thiếu: có id thì tra email và ngược lại,
	// để gỡ được cả trường hợp email còn sót trong unknown_members.
	if userID.IsZero() && email == "" {
		return models.Organization{}, common.ErrRequiredField
	}
	if email == "" {
		if user, err := s.users.FindOneById(ctx, userID); err == nil {
			email = user.Email
		}
	}
	if userID.IsZero() && email != "" {
		if user, err := s.users.FindByEmail(ctx, email); err == nil {
			userID = user.ID
		}
	}

	org, err := s.FindOneById(ctx, orgID)
	if err != nil {
		return models.Organization{}, err
	}

	set := bson.M{}
	if !userID.IsZero() {
		set["members"] = utility.Remove(org.Members, userID)
	}
	if email != "" {
		set["unknown_members"] = utility.Remove(org.UnknownMembers, email)
	}

	updated, err := s.UpdateById(ctx, orgID, &basesvc.UpdateData{Set: set})
	if err != nil {
		return models.Organization{}, err
	}

	if !userID.IsZero() {
		if err := s.RefreshRoles(ctx, userID); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID.Hex(),
				"error":   err,
			}).Warn("⚠️ [ORG] Không refresh được role sau khi xoá thành viên")
		}
	}
	return updated, nil
}

// AssignAdmin chuyển quyền admin của tổ chức sang user khác.
func (s *OrganizationService) AssignAdmin(ctx context.Context, orgID, newAdminUID primitive.ObjectID) error {
	if _, err := s.users.FindOneById(ctx, newAdminUID); err != nil {
		return err
	}
	_, err := s.UpdateById(ctx, orgID, &basesvc.UpdateData{
		Set: bson.M{"admin_uid": newAdminUID},
	})
	return err
}

// RefreshRoles đồng bộ role org của user với các tổ chức user đang là thành viên.
// Cấp role còn thiếu, thu hồi role "org-*" không còn tổ chức nào cấp.
func (s *OrganizationService) RefreshRoles(ctx context.Context, userID primitive.ObjectID) error {
	orgs, err := s.Find(ctx, bson.M{"members": userID}, nil)
	if err != nil {
		return err
	}

	orgRoles := map[string]bool{}
	for _, org := range orgs {
		for _, role := range org.OrgRoles {
			orgRoles[role] = true
		}
	}

	user, err := s.users.FindOneById(ctx, userID)
	if err != nil {
		if common.IsNotFound(err) {
			logrus.WithField("user_id", userID.Hex()).Warn("⚠️ [ORG] Refresh role cho user không tồn tại, bỏ qua")
			return nil
		}
		return err
	}

	for role := range orgRoles {
		if !user.HasRole(role) {
			if err := s.users.GrantRole(ctx, userID, role); err != nil {
				return err
			}
		}
	}
	for _, role := range user.Roles {
		if strings.HasPrefix(role, orgRolePrefix) && !orgRoles[role] {
			if err := s.users.RevokeRole(ctx, userID, role); err != nil {
				return err
			}
		}
	}
	return nil
}

// RolesForIP trả về hợp các org_roles của mọi tổ chức có dải IP chứa địa chỉ này.
func (s *OrganizationService) RolesForIP(ctx context.Context, remoteIP net.IP) ([]string, error) {
	addr := IPTo16(remoteIP)
	if addr == nil {
		return nil, nil
	}

	orgs, err := s.Find(ctx, bson.M{
		"ip_ranges": bson.M{"$elemMatch": bson.M{
			"start": bson.M{"$lte": addr},
			"end":   bson.M{"$gte": addr},
		}},
	}, nil)
	if err != nil {
		return nil, err
	}

	var roles []string
	for _, org := range orgs {
		roles = utility.Union(roles, org.OrgRoles)
	}
	return roles, nil
}

// MakeMemberKnown chuyển user từ unknown_members sang members trong mọi tổ chức
// đang chờ email này, rồi cấp role tương ứng. Gọi khi user xác thực lần đầu.
func (s *OrganizationService) MakeMemberKnown(ctx context.Context, userID primitive.ObjectID, email string) error {
	if email == "" {
		return nil
	}

	orgs, err := s.Find(ctx, bson.M{"unknown_members": email}, nil)
	if err != nil {
		return err
	}
	if len(orgs) == 0 {
		return nil
	}

	for _, org := range orgs {
		// Update trực tiếp bằng toán tử atomic để hai lần promote
		// đồng thời không ghi đè thành viên của nhau
		_, err := s.Collection().UpdateByID(ctx, org.ID, bson.M{
			"$addToSet": bson.M{"members": userID},
			"$pull":     bson.M{"unknown_members": email},
		})
		if err != nil {
			return common.ConvertMongoError(err)
		}
		logrus.WithFields(logrus.Fields{
			"org_id":  org.ID.Hex(),
			"user_id": userID.Hex(),
			"email":   email,
		}).Info("🔄 [ORG] Đã chuyển thành viên unknown thành known")
	}

	return s.RefreshRoles(ctx, userID)
}

// UserHasOrganizations kiểm tra user có là admin hoặc thành viên của tổ chức nào không.
func (s *OrganizationService) UserHasOrganizations(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	count, err := s.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"admin_uid": userID},
		{"members": userID},
	}})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
