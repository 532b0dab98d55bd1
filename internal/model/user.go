package model

import "time"

// Role names as stored in the `users.role` column and carried in the JWT
// "role" claim. The service never creates users; it only reads them to
// resolve booking eligibility and scan authorization.
const (
	RoleUser         = "user"
	RoleAdmin        = "admin"
	RoleEventManager = "event_manager"
	RoleSuperAdmin   = "superadmin"
)

// User represents an application user record as stored in the `users`
// table. Identity issuance happens outside this service; by the time a
// request reaches the core the caller has already been authenticated and
// the user row is only consulted for existence and role.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password (written by the seed tooling only).
//  Role         – one of the Role* constants.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
}
