// Package ctxkeys defines typed context keys shared between middleware
// and handlers. Both import this package; neither imports the other.
package ctxkeys

// Key is a typed string used as context key to prevent collisions.
type Key string

const (
	UserID    Key = "userID"
	UserRole  Key = "userRole"
	RequestID Key = "requestID"

	// AuditUser carries a *telemetry.UserCapture so the auth layer can
	// surface the authenticated user to the outer audit middleware.
	AuditUser Key = "auditUser"
)

// ValidRoles lists all valid role strings.
var ValidRoles = map[string]bool{
	"viewer":      true,
	"operator":    true,
	"admin":       true,
	"super_admin": true,
}

// RoleLevel maps role names to permission levels.
var RoleLevel = map[string]int{
	"viewer":      1,
	"operator":    2,
	"admin":       3,
	"super_admin": 4,
}
