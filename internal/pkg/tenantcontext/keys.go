package tenantcontext

// Shared Locals/session keys used across controllers and middlewares
const (
	KeyBusinessID    = "business_id"
	KeyFromProtected = "from_protected"
)
