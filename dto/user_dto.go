package dto

type RegisterUserDTO struct {
	Username string `form:"username" binding:"required,min=3"`
	Email    string `form:"email" binding:"required,email"`
	FullName string `form:"fullName" binding:"required"`
	Password string `form:"password" binding:"required,min=8"`
}

// UpdateUserDTO allows only fullName and email changes; anything else on the
// user document is owned by a dedicated endpoint.
type UpdateUserDTO struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}
