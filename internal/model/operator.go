package model

import "time"

// RoleAdmin is the only operator role.  Route management requires it.
const RoleAdmin = "ADMIN"

// Operator mirrors the 'operators' table: staff accounts allowed to manage
// routes and view bookings.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – login email (unique, lower-cased).
//	PasswordHash – bcrypt hashed password.
//	Role         – authorisation role, currently always ADMIN.
//	IsActive     – inactive operators cannot log in.
//	CreatedAt    – creation timestamp.
//	UpdatedAt    – last update timestamp.
type Operator struct {
	ID           uint64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
