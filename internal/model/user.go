// internal/model/user.go
package model

import "time"

type Role string

const (
	RolePublisher    Role = "publisher"
	RoleBrandManager Role = "brand_manager"
	// RoleFieldRep is only carried in tokens; field reps are not users.
	RoleFieldRep Role = "field_rep"
)

func (r Role) Valid() bool {
	return r == RolePublisher || r == RoleBrandManager
}

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
