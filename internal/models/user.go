package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	RoleFarmer = "farmer"
	RoleBuyer  = "buyer"
)

type User struct {
	ID        gocql.UUID `json:"id" db:"user_id"`
	Email     string     `json:"email" db:"email"`
	Password  string     `json:"-" db:"password"` // hash Argon2id, jamais sérialisé
	Name      string     `json:"name" db:"name"`
	Role      string     `json:"role" db:"role"` // "farmer" ou "buyer"
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
