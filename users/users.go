package users

import "strings"

// RoleType is only populated on admin responses.
type RoleType string

const (
	RoleAdmin RoleType = "admin"
	RoleUser  RoleType = "user"
)

// User is the identity record returned by GET /users/me.
type User struct {
	ID          string    `json:"id"`             // Public identifier
	Username    string    `json:"username"`       // Display name, 3-50 characters
	Email       string    `json:"email"`          // Login email
	Icon        *string   `json:"icon,omitempty"` // Icon file name, nil when the user has none
	DateCreated Timestamp `json:"date_created"`   // Account creation time
	Role        RoleType  `json:"role,omitempty"` // Admin responses only
}

// IconURL returns "<baseURL>/icons/<icon>" or "" when the user has no icon.
func (u *User) IconURL(baseURL string) string {
	if u == nil {
		return ""
	}
	if u.Icon == nil || *u.Icon == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/icons/" + *u.Icon
}

// Clone returns a deep copy so callers cannot mutate session state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Icon != nil {
		icon := *u.Icon
		c.Icon = &icon
	}
	return &c
}

// IsAdmin reports whether the record carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
