package util

// gin context keys
const (
	ContextUserKey  = "user"
	ContextTokenKey = "token"
)
