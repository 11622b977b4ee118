package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Username   string `json:"username"    binding:"required"`
	Password   string `json:"password"    binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateUserRequest 创建操作账号（命令行初始化管理员时使用）
type CreateUserRequest struct {
	Username   string `json:"username"    binding:"required,min=3,max=64"`
	Password   string `json:"password"    binding:"required,min=8,max=64"`
	Role       string `json:"role"        binding:"required,oneof=admin manager employee"`
	EmployeeID string `json:"employee_id" binding:"omitempty,max=32"`
}
