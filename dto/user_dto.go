package dto

// RegisterUserDTO is bound from the multipart registration form. The avatar
// and cover image arrive as file parts.
type RegisterUserDTO struct {
	FullName string `form:"fullname" binding:"required"`
	Username string `form:"username" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

// LoginDTO accepts either a username or an email.
type LoginDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type UpdateAccountDTO struct {
	FullName string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}
