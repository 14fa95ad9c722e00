package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin      UserRole = "SUPER_ADMIN"
	RoleDepartmentAdmin UserRole = "DEPARTMENT_ADMIN"
	RoleFaculty         UserRole = "FACULTY"
	RoleStudent         UserRole = "STUDENT"
)

// Principal is the authenticated caller threaded explicitly into engine calls.
type Principal struct {
	UserID int64    `json:"user_id"`
	Role   UserRole `json:"role"`
}
