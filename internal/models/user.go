package models

import "time"

const (
	RoleMember     = "member"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanDecide reports whether the user may assign tasks and
// decide extension requests for other members.
func (u *User) CanDecide() bool {
	return u.Role == RoleSupervisor || u.Role == RoleAdmin
}

func IsValidRole(role string) bool {
	return role == RoleMember || role == RoleSupervisor || role == RoleAdmin
}
