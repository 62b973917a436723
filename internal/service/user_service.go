package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Digitalhour/ACSCoreOS-sub013/internal/dto"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/model"
	"github.com/Digitalhour/ACSCoreOS-sub013/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrEmployeeNumberExists = errors.New("工号已存在")
	ErrEmailExists          = errors.New("邮箱已被使用")
	ErrUserSelfRoleChange   = errors.New("不能修改自己的角色")
	ErrUserSelfDelete       = errors.New("不能删除或停用自己")
	ErrManagerSelf          = errors.New("不能将员工设为自己的上级")
	ErrManagerNotFound      = errors.New("上级不存在")
	ErrDepartmentNotFound   = errors.New("部门不存在")
	ErrNoPermission         = errors.New("无权操作")
)

// UserService 用户业务接口
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.CreateUserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest, caller Caller) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, caller Caller) (*dto.UserResponse, error)
	Deactivate(ctx context.Context, id string, callerID string) error
	Delete(ctx context.Context, id string, callerID string) error
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) error
	ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
	// NormalizeNames 按姓名字段重新生成所有员工的显示名，dryRun 时只返回差异
	NormalizeNames(ctx context.Context, dryRun bool) ([]dto.NormalizeNameChange, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row            int
	EmployeeNumber string
	FirstName      string
	LastName       string
	PreferredName  string
	Email          string
	DepartmentName string
	PositionTitle  string
	Role           string
	HireDate       string
}

type userService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) UserService {
	return &userService{repo: repo, activity: activity, logger: logger}
}

// ────────────────────── CreateUser ──────────────────────

func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.CreateUserResponse, error) {
	if err := s.ensureUnique(ctx, req.EmployeeNumber, req.Email, ""); err != nil {
		return nil, err
	}

	user := &model.User{
		EmployeeNumber:     strings.TrimSpace(req.EmployeeNumber),
		FirstName:          strings.TrimSpace(req.FirstName),
		LastName:           strings.TrimSpace(req.LastName),
		PreferredName:      strings.TrimSpace(req.PreferredName),
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		Role:               req.Role,
		IsActive:           true,
		MustChangePassword: true,
	}
	if user.Role == "" {
		user.Role = model.RoleEmployee
	}
	if err := s.applyOrgFields(ctx, user, req.DepartmentID, req.PositionID, req.ManagerID); err != nil {
		return nil, err
	}
	if req.HireDate != "" {
		d, err := dto.ParseDate(req.HireDate)
		if err != nil {
			return nil, err
		}
		user.HireDate = &d
	}
	user.RefreshDisplayName()

	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}
	user.PasswordHash = string(hash)
	user.CreatedBy = &callerID
	user.UpdatedBy = &callerID

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName:     LogNameUser,
		Description: "创建员工",
		SubjectType: "user",
		SubjectID:   user.UserID,
		CauserID:    callerID,
		Properties:  map[string]interface{}{"employee_number": user.EmployeeNumber, "role": user.Role},
	})

	// 重新加载以获取关联数据（部门、岗位）
	created, err := s.repo.User.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	return &dto.CreateUserResponse{
		User:         *toUserResponse(created),
		TempPassword: tempPassword,
	}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest, caller Caller) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		DepartmentID: req.DepartmentID,
		Role:         req.Role,
		Keyword:      req.Keyword,
		IsActive:     req.IsActive,
	}

	// manager 自动过滤为本部门
	switch {
	case caller.IsPrivileged():
	case caller.Role == model.RoleManager:
		if caller.DepartmentID == "" {
			return []dto.UserResponse{}, 0, nil
		}
		filter.DepartmentID = caller.DepartmentID
	default:
		return nil, 0, ErrNoPermission
	}

	users, total, err := s.repo.User.List(ctx, filter, repository.Page{Offset: req.GetOffset(), Limit: req.GetPageSize()})
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, caller Caller) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// 非 admin / hr 只能修改自己的常用名
	if !caller.IsPrivileged() {
		if caller.UserID != id {
			return nil, ErrNoPermission
		}
		if req.EmployeeNumber != nil || req.FirstName != nil || req.LastName != nil || req.Email != nil ||
			req.DepartmentID != nil || req.PositionID != nil || req.ManagerID != nil ||
			req.HireDate != nil || req.IsActive != nil {
			return nil, ErrNoPermission
		}
	}

	// 应用更新字段（仅更新非 nil 字段）
	if req.EmployeeNumber != nil || req.Email != nil {
		number, email := "", ""
		if req.EmployeeNumber != nil && *req.EmployeeNumber != user.EmployeeNumber {
			number = *req.EmployeeNumber
		}
		if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
			email = *req.Email
		}
		if err := s.ensureUnique(ctx, number, email, id); err != nil {
			return nil, err
		}
		if number != "" {
			user.EmployeeNumber = strings.TrimSpace(number)
		}
		if email != "" {
			user.Email = strings.ToLower(strings.TrimSpace(email))
		}
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.PreferredName != nil {
		user.PreferredName = strings.TrimSpace(*req.PreferredName)
	}
	if req.ManagerID != nil && *req.ManagerID == id {
		return nil, ErrManagerSelf
	}
	if err := s.applyOrgFields(ctx, user, req.DepartmentID, req.PositionID, req.ManagerID); err != nil {
		return nil, err
	}
	if req.HireDate != nil {
		d, err := dto.ParseOptionalDate(*req.HireDate)
		if err != nil {
			return nil, err
		}
		user.HireDate = d
	}
	if req.IsActive != nil {
		if !*req.IsActive && id == caller.UserID {
			return nil, ErrUserSelfDelete
		}
		user.IsActive = *req.IsActive
	}
	user.RefreshDisplayName()
	user.UpdatedBy = &caller.UserID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameUser, Description: "更新员工信息",
		SubjectType: "user", SubjectID: id, CauserID: caller.UserID,
	})

	// 重新加载关联
	updated, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(updated), nil
}

// ────────────────────── Deactivate / Delete ──────────────────────

func (s *userService) Deactivate(ctx context.Context, id string, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}

	user.IsActive = false
	user.UpdatedBy = &callerID
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("停用用户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameUser, Description: "停用员工",
		SubjectType: "user", SubjectID: id, CauserID: callerID,
	})
	return nil
}

func (s *userService) Delete(ctx context.Context, id string, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}

	// 检查用户存在
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}

	if err := s.repo.User.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameUser, Description: "删除员工",
		SubjectType: "user", SubjectID: id, CauserID: callerID,
	})
	return nil
}

// ────────────────────── AssignRole ──────────────────────

func (s *userService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) error {
	if id == callerID {
		return ErrUserSelfRoleChange
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == req.Role {
		return nil
	}

	before := user.Role
	user.Role = req.Role
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("分配角色失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameUser, Description: "分配角色",
		SubjectType: "user", SubjectID: id, CauserID: callerID,
		Properties: map[string]interface{}{"before": before, "after": req.Role},
	})
	return nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error) {
	if _, err := s.getUser(ctx, id); err != nil {
		return nil, err
	}

	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	if err := s.repo.User.UpdatePassword(ctx, id, string(hash), true); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		LogName: LogNameUser, Description: "重置密码",
		SubjectType: "user", SubjectID: id, CauserID: callerID,
	})

	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（工号/名/姓/邮箱）")
)

var userImportColumns = map[string][]string{
	"employee_number": {"工号", "employee_number", "employee number"},
	"first_name":      {"名", "first_name", "first name"},
	"last_name":       {"姓", "last_name", "last name"},
	"preferred_name":  {"常用名", "preferred_name", "preferred name"},
	"email":           {"邮箱", "email"},
	"department":      {"部门", "department"},
	"position":        {"岗位", "position"},
	"role":            {"角色", "role"},
	"hire_date":       {"入职日期", "hire_date", "hire date"},
}

// ParseImportFile 解析导入 Excel 文件，返回解析后的行数据
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	excelRows, err := readFirstSheet(reader)
	if err != nil {
		return nil, err
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	col := parseHeaderIndex(excelRows[0], userImportColumns)
	if col["employee_number"] < 0 || col["first_name"] < 0 || col["last_name"] < 0 || col["email"] < 0 {
		return nil, ErrImportBadHeader
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		r := excelRows[i]
		item := ImportUserRow{
			Row:            i + 1,
			EmployeeNumber: cellAt(r, col["employee_number"]),
			FirstName:      cellAt(r, col["first_name"]),
			LastName:       cellAt(r, col["last_name"]),
			PreferredName:  cellAt(r, col["preferred_name"]),
			Email:          cellAt(r, col["email"]),
			DepartmentName: cellAt(r, col["department"]),
			PositionTitle:  cellAt(r, col["position"]),
			Role:           strings.ToLower(cellAt(r, col["role"])),
			HireDate:       cellAt(r, col["hire_date"]),
		}

		// 跳过全空行
		if item.EmployeeNumber == "" && item.FirstName == "" && item.LastName == "" && item.Email == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// ────────────────────── ImportUsers ──────────────────────

func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	// 预加载所有部门，便于按名称查找
	deptMap, err := s.buildDepartmentMap(ctx)
	if err != nil {
		s.logger.Error("加载部门列表失败", zap.Error(err))
		return nil, err
	}

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	var valid []*model.User
	var validRows []int
	seenNumber := make(map[string]bool)
	seenEmail := make(map[string]bool)

	for _, row := range rows {
		email := strings.ToLower(row.Email)
		if row.EmployeeNumber == "" || row.FirstName == "" || row.LastName == "" || email == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		if !strings.Contains(email, "@") {
			fail(row.Row, fmt.Sprintf("邮箱格式无效: %s", row.Email))
			continue
		}
		if seenNumber[row.EmployeeNumber] {
			fail(row.Row, fmt.Sprintf("文件内工号重复: %s", row.EmployeeNumber))
			continue
		}
		if seenEmail[email] {
			fail(row.Row, fmt.Sprintf("文件内邮箱重复: %s", row.Email))
			continue
		}

		role := row.Role
		if role == "" {
			role = model.RoleEmployee
		}
		if !model.ValidRole(role) {
			fail(row.Row, fmt.Sprintf("角色无效: %s", row.Role))
			continue
		}

		user := &model.User{
			EmployeeNumber:     row.EmployeeNumber,
			FirstName:          row.FirstName,
			LastName:           row.LastName,
			PreferredName:      row.PreferredName,
			Email:              email,
			Role:               role,
			IsActive:           true,
			MustChangePassword: true,
		}

		if row.DepartmentName != "" {
			dept, ok := deptMap[strings.ToLower(row.DepartmentName)]
			if !ok {
				fail(row.Row, fmt.Sprintf("部门不存在: %s", row.DepartmentName))
				continue
			}
			user.DepartmentID = &dept.DepartmentID
		}
		if row.PositionTitle != "" {
			pos, err := s.repo.Position.GetByTitle(ctx, row.PositionTitle, user.DepartmentID)
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, err
				}
				fail(row.Row, fmt.Sprintf("岗位不存在: %s", row.PositionTitle))
				continue
			}
			user.PositionID = &pos.PositionID
		}
		if row.HireDate != "" {
			d, err := dto.ParseDate(row.HireDate)
			if err != nil {
				fail(row.Row, err.Error())
				continue
			}
			user.HireDate = &d
		}

		// 检查工号、邮箱唯一性
		if _, err := s.repo.User.GetByEmployeeNumber(ctx, row.EmployeeNumber); err == nil {
			fail(row.Row, fmt.Sprintf("工号已存在: %s", row.EmployeeNumber))
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
			fail(row.Row, fmt.Sprintf("邮箱已存在: %s", row.Email))
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		// 默认密码 = "Acs" + 工号后6位，首次登录须修改
		hash, err := bcrypt.GenerateFromPassword([]byte(defaultImportPassword(row.EmployeeNumber)), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}
		user.PasswordHash = string(hash)
		user.CreatedBy = &callerID
		user.RefreshDisplayName()

		seenNumber[row.EmployeeNumber] = true
		seenEmail[email] = true
		valid = append(valid, user)
		validRows = append(validRows, row.Row)
	}

	// 第二阶段：在事务中批量创建所有通过校验的用户
	if len(valid) > 0 {
		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			for i, user := range valid {
				if err := tx.User.Create(ctx, user); err != nil {
					s.logger.Error("导入用户写入失败，事务回滚",
						zap.Int("row", validRows[i]), zap.Error(err))
					return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", validRows[i], err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		resp.Success = len(valid)

		s.activity.Record(ctx, ActivityEntry{
			LogName: LogNameUser, Description: "批量导入员工", CauserID: callerID,
			Properties: map[string]interface{}{"total": resp.Total, "success": resp.Success, "failed": resp.Failed},
		})
	}

	return resp, nil
}

// ────────────────────── NormalizeNames ──────────────────────

func (s *userService) NormalizeNames(ctx context.Context, dryRun bool) ([]dto.NormalizeNameChange, error) {
	users, err := s.repo.User.ListAll(ctx)
	if err != nil {
		s.logger.Error("加载员工列表失败", zap.Error(err))
		return nil, err
	}

	changes := make([]dto.NormalizeNameChange, 0)
	for _, u := range users {
		after := model.BuildDisplayName(u.FirstName, u.LastName, u.PreferredName)
		if after == u.DisplayName {
			continue
		}
		changes = append(changes, dto.NormalizeNameChange{
			UserID:         u.UserID,
			EmployeeNumber: u.EmployeeNumber,
			Before:         u.DisplayName,
			After:          after,
		})
		if dryRun {
			continue
		}
		if err := s.repo.User.UpdateDisplayName(ctx, u.UserID, after); err != nil {
			s.logger.Error("更新显示名失败", zap.String("user_id", u.UserID), zap.Error(err))
			return changes, err
		}
	}

	if !dryRun && len(changes) > 0 {
		s.logger.Info("显示名规范化完成", zap.Int("changed", len(changes)))
		s.activity.Record(ctx, ActivityEntry{
			LogName: LogNameUser, Description: "规范化员工显示名",
			Properties: map[string]interface{}{"changed": len(changes)},
		})
	}
	return changes, nil
}

// ── 内部辅助方法 ──

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// ensureUnique 检查工号与邮箱未被其他员工占用；空值跳过
func (s *userService) ensureUnique(ctx context.Context, employeeNumber, email, excludeID string) error {
	if employeeNumber != "" {
		existing, err := s.repo.User.GetByEmployeeNumber(ctx, strings.TrimSpace(employeeNumber))
		if err == nil && existing.UserID != excludeID {
			return ErrEmployeeNumberExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if email != "" {
		existing, err := s.repo.User.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		if err == nil && existing.UserID != excludeID {
			return ErrEmailExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

// applyOrgFields 校验并写入部门、岗位、上级；nil 表示不修改，空串表示清除
func (s *userService) applyOrgFields(ctx context.Context, user *model.User, departmentID, positionID, managerID *string) error {
	if departmentID != nil {
		if *departmentID == "" {
			user.DepartmentID = nil
		} else {
			if _, err := s.repo.Department.GetByID(ctx, *departmentID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrDepartmentNotFound
				}
				return err
			}
			id := *departmentID
			user.DepartmentID = &id
		}
	}
	if positionID != nil {
		if *positionID == "" {
			user.PositionID = nil
		} else {
			if _, err := s.repo.Position.GetByID(ctx, *positionID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPositionNotFound
				}
				return err
			}
			id := *positionID
			user.PositionID = &id
		}
	}
	if managerID != nil {
		if *managerID == "" {
			user.ManagerID = nil
		} else {
			if _, err := s.repo.User.GetByID(ctx, *managerID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrManagerNotFound
				}
				return err
			}
			id := *managerID
			user.ManagerID = &id
		}
	}
	return nil
}

// buildDepartmentMap 构建部门名称（小写）-> 部门实体映射
func (s *userService) buildDepartmentMap(ctx context.Context) (map[string]*model.Department, error) {
	departments, err := s.repo.Department.List(ctx, false)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*model.Department, len(departments))
	for i := range departments {
		m[strings.ToLower(departments[i].Name)] = &departments[i]
	}
	return m, nil
}

// toUserResponse 将 model.User 转换为 dto.UserResponse
func toUserResponse(user *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:                 user.UserID,
		EmployeeNumber:     user.EmployeeNumber,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		PreferredName:      user.PreferredName,
		DisplayName:        user.DisplayName,
		Email:              user.Email,
		Role:               user.Role,
		ManagerID:          user.ManagerID,
		IsActive:           user.IsActive,
		MustChangePassword: user.MustChangePassword,
		Version:            user.Version,
	}
	if user.Department != nil {
		resp.Department = &dto.DepartmentResponse{
			ID:   user.Department.DepartmentID,
			Name: user.Department.Name,
		}
	}
	if user.Position != nil {
		resp.Position = &dto.PositionBrief{
			ID:    user.Position.PositionID,
			Title: user.Position.Title,
		}
	}
	if user.HireDate != nil {
		resp.HireDate = dto.FormatDate(*user.HireDate)
	}
	return resp
}

func defaultImportPassword(employeeNumber string) string {
	tail := employeeNumber
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return "Acs" + tail
}

// ── Excel 读取 ──

// readFirstSheet 读取工作簿第一个工作表的所有行
func readFirstSheet(reader io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射（缺失为 -1）
func parseHeaderIndex(header []string, aliases map[string][]string) map[string]int {
	idx := make(map[string]int, len(aliases))
	for key := range aliases {
		idx[key] = -1
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		for key, names := range aliases {
			for _, name := range names {
				if lower == name {
					idx[key] = i
				}
			}
		}
	}
	return idx
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}

	result := make([]byte, length)

	// 保证至少1个字母+1个数字
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
