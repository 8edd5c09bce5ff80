package oauth2

// LoginRequest is the body of POST /auth/login. Username carries the email
// address the account was registered with.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GoogleLoginRequest is the body of POST /auth/login/google. Token is the
// ID token obtained from Google Sign-In.
type GoogleLoginRequest struct {
	Token string `json:"token"`
}

// PasswordResetRequest is the body of POST /users/request-password-reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm is the body of POST /users/reset-password.
type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
