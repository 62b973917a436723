package dto

// ── 部门模块 DTO ──

// CreateDepartmentRequest 创建部门请求
type CreateDepartmentRequest struct {
	Name        string  `json:"name"        binding:"required,min=2,max=100"`
	Description string  `json:"description" binding:"omitempty,max=500"`
	ManagerID   *string `json:"manager_id"  binding:"omitempty,uuid"`
}

// UpdateDepartmentRequest 更新部门请求
type UpdateDepartmentRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	ManagerID   *string `json:"manager_id"  binding:"omitempty,uuid"`
	IsActive    *bool   `json:"is_active"`
}

// DepartmentListRequest 部门列表查询参数
type DepartmentListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// DepartmentDetailResponse 部门详细信息响应
type DepartmentDetailResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	ManagerID   *string `json:"manager_id,omitempty"`
	IsActive    bool    `json:"is_active"`
	MemberCount int64   `json:"member_count"`
	Version     int     `json:"version"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ── 岗位 ──

// CreatePositionRequest 创建岗位请求
type CreatePositionRequest struct {
	Title        string  `json:"title"         binding:"required,min=2,max=100"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
	Description  string  `json:"description"   binding:"omitempty,max=500"`
}

// UpdatePositionRequest 更新岗位请求
type UpdatePositionRequest struct {
	Title        *string `json:"title"         binding:"omitempty,min=2,max=100"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
	Description  *string `json:"description"   binding:"omitempty,max=500"`
	IsActive     *bool   `json:"is_active"`
}

// PositionListRequest 岗位列表查询参数
type PositionListRequest struct {
	DepartmentID    string `form:"department_id"    binding:"omitempty,uuid"`
	IncludeInactive bool   `form:"include_inactive"`
}
