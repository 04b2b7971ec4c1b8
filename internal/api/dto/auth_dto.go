package dto

// RegisterRequest 注册表单
type RegisterRequest struct {
	Username        string `form:"username" binding:"required,min=1,max=64,username"`
	Email           string `form:"email" binding:"required,email,max=255"`
	Password        string `form:"password" binding:"required,min=2,max=255"`
	PasswordConfirm string `form:"password2" binding:"required,eqfield=Password"`
}

// LoginRequest 登录表单
type LoginRequest struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}
