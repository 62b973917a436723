package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Role         string `form:"role"          binding:"omitempty,oneof=admin hr manager employee"`
	Keyword      string `form:"keyword"       binding:"omitempty,max=50"`
	IsActive     *bool  `form:"is_active"`
}

// CreateUserRequest 创建员工请求
type CreateUserRequest struct {
	EmployeeNumber string  `json:"employee_number" binding:"required,max=30"`
	FirstName      string  `json:"first_name"      binding:"required,max=100"`
	LastName       string  `json:"last_name"       binding:"required,max=100"`
	PreferredName  string  `json:"preferred_name"  binding:"omitempty,max=100"`
	Email          string  `json:"email"           binding:"required,email"`
	Role           string  `json:"role"            binding:"omitempty,oneof=admin hr manager employee"`
	DepartmentID   *string `json:"department_id"   binding:"omitempty,uuid"`
	PositionID     *string `json:"position_id"     binding:"omitempty,uuid"`
	ManagerID      *string `json:"manager_id"      binding:"omitempty,uuid"`
	HireDate       string  `json:"hire_date"       binding:"omitempty,datetime=2006-01-02"`
}

// UpdateUserRequest 更新员工信息请求
// 本人仅可修改 preferred_name；其余字段需 admin / hr
type UpdateUserRequest struct {
	EmployeeNumber *string `json:"employee_number" binding:"omitempty,max=30"`
	FirstName      *string `json:"first_name"      binding:"omitempty,min=1,max=100"`
	LastName       *string `json:"last_name"       binding:"omitempty,min=1,max=100"`
	PreferredName  *string `json:"preferred_name"  binding:"omitempty,max=100"`
	Email          *string `json:"email"           binding:"omitempty,email"`
	DepartmentID   *string `json:"department_id"   binding:"omitempty,uuid"`
	PositionID     *string `json:"position_id"     binding:"omitempty,uuid"`
	ManagerID      *string `json:"manager_id"      binding:"omitempty,uuid"`
	HireDate       *string `json:"hire_date"       binding:"omitempty,datetime=2006-01-02"`
	IsActive       *bool   `json:"is_active"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin hr manager employee"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID                 string              `json:"id"`
	EmployeeNumber     string              `json:"employee_number"`
	FirstName          string              `json:"first_name"`
	LastName           string              `json:"last_name"`
	PreferredName      string              `json:"preferred_name,omitempty"`
	DisplayName        string              `json:"display_name"`
	Email              string              `json:"email"`
	Role               string              `json:"role"`
	Department         *DepartmentResponse `json:"department,omitempty"`
	Position           *PositionBrief      `json:"position,omitempty"`
	ManagerID          *string             `json:"manager_id,omitempty"`
	HireDate           string              `json:"hire_date,omitempty"`
	IsActive           bool                `json:"is_active"`
	MustChangePassword bool                `json:"must_change_password"`
	Version            int                 `json:"version"`
}

// DepartmentResponse 部门简要信息
type DepartmentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PositionBrief 岗位简要信息
type PositionBrief struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CreateUserResponse 创建员工响应（含一次性临时密码）
type CreateUserResponse struct {
	User         UserResponse `json:"user"`
	TempPassword string       `json:"temp_password"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportUserResponse 批量导入用户响应
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// NormalizeNameChange 显示名规范化结果
type NormalizeNameChange struct {
	UserID         string `json:"user_id"`
	EmployeeNumber string `json:"employee_number"`
	Before         string `json:"before"`
	After          string `json:"after"`
}
