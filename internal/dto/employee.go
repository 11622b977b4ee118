package dto

// ── 员工模块 DTO ──

// CreateEmployeeRequest 创建员工请求
type CreateEmployeeRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,min=1,max=32"`
	Name       string `json:"name"        binding:"required,min=1,max=100"`
	Email      string `json:"email"       binding:"required,email,max=255"`
	Department string `json:"department"  binding:"required,min=1,max=100"`
	Position   string `json:"position"    binding:"required,min=1,max=100"`
}

// UpdateEmployeeRequest 更新员工请求（工号不可变）
type UpdateEmployeeRequest struct {
	Name       *string `json:"name"       binding:"omitempty,min=1,max=100"`
	Email      *string `json:"email"      binding:"omitempty,email,max=255"`
	Department *string `json:"department" binding:"omitempty,min=1,max=100"`
	Position   *string `json:"position"   binding:"omitempty,min=1,max=100"`
	Active     *bool   `json:"active"`
}

// EmployeeListRequest 员工列表查询参数
type EmployeeListRequest struct {
	PaginationRequest
	Active     *bool  `form:"active"`
	Department string `form:"department"`
	Keyword    string `form:"keyword" binding:"omitempty,max=100"`
}

// EmployeeResponse 员工信息响应（不含人脸模板）
type EmployeeResponse struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Department   string `json:"department"`
	Position     string `json:"position"`
	Active       bool   `json:"active"`
	FaceEnrolled bool   `json:"face_enrolled"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// EmployeeSummary 报表中关联的员工摘要
type EmployeeSummary struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}
