package auth

// Role is the coarse access level of a dashboard account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleGuest Role = "guest"
)

// CanReceiveTaskPush reports whether a role is offered the push-subscribe
// affordance. Only front-line staff and administrators receive operational
// task pushes.
func CanReceiveTaskPush(r Role) bool {
	return r == RoleAdmin || r == RoleStaff
}

// CanClearTasks gates the destructive clear-all-tasks action to
// administrators.
func CanClearTasks(r Role) bool {
	return r == RoleAdmin
}
