package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// Session is the authenticated caller, handed to services explicitly.
type Session struct {
	UserID uint
	Role   UserRole
	Token  string
}
