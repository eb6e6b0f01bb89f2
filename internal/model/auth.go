package model

// LoginRequest is the login endpoint payload.
type LoginRequest struct {
	LoginName string `json:"login_name" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// TokenResponse carries the issued token pair plus password-age
// metadata the client uses to prompt for a change.
type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	PasswordExpired       bool   `json:"password_expired"`
	PasswordExpiryWarning bool   `json:"password_expiry_warning"`
	PasswordRemainingDays int64  `json:"password_remaining_days"`
}

// TokenClaims is the validated identity extracted from a token.
type TokenClaims struct {
	AdminID   int64     `json:"admin_id"`
	LoginName string    `json:"login_name"`
	Role      AdminRole `json:"role"`
}

// ChangePasswordRequest is the self-service password change payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ResetPasswordRequest is the admin-initiated reset payload.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// GrantRequest is the delegated-permission grant/revoke payload.
type GrantRequest struct {
	AdminID int64          `json:"admin_id" binding:"required"`
	Type    PermissionType `json:"type" binding:"required"`
}

// ReviewRequest carries an approval or rejection comment.
type ReviewRequest struct {
	Comment string `json:"comment"`
}
