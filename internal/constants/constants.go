package constants

// Context keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "current_user"
)

// Password policy
const (
	MinPasswordLength = 8
)

// Pagination
const (
	MinPage             = 1
	DefaultProjectLimit = 10
	DefaultTaskLimit    = 20
	MaxPageSize         = 100
)

// Field limits
const (
	MaxNameLength  = 100
	MaxTitleLength = 100
)
