package entity

import "time"

// Roles de la aplicación.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User representa un usuario del almacén (autenticación y auditoría de movimientos).
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string // admin | staff
	Status       string // active | disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
