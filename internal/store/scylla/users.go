package scylla

import (
	"context"

	"github.com/gocql/gocql"

	"github.com/EPHRANCINA/farm-to-market-django/internal/marketplace"
	"github.com/EPHRANCINA/farm-to-market-django/internal/models"
)

// InsertUser réserve d'abord l'email via LWT sur users_by_email : deux
// inscriptions concurrentes sur le même email ne passent jamais toutes les
// deux.
func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	applied, err := s.users.Query(
		`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`,
		u.Email, u.ID,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return &marketplace.ConflictError{Reason: "un compte existe déjà avec cet email"}
	}

	return s.users.Query(
		`INSERT INTO users (user_id, email, password, name, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Password, u.Name, u.Role, u.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *Store) GetUser(ctx context.Context, id gocql.UUID) (*models.User, error) {
	var u models.User
	u.ID = id
	err := s.users.Query(
		`SELECT email, password, name, role, created_at FROM users WHERE user_id = ?`, id,
	).WithContext(ctx).Scan(&u.Email, &u.Password, &u.Name, &u.Role, &u.CreatedAt)
	if err == gocql.ErrNotFound {
		return nil, &marketplace.NotFoundError{Entity: "utilisateur", ID: id.String()}
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var id gocql.UUID
	err := s.users.Query(
		`SELECT user_id FROM users_by_email WHERE email = ?`, email,
	).WithContext(ctx).Scan(&id)
	if err == gocql.ErrNotFound {
		return nil, &marketplace.NotFoundError{Entity: "utilisateur", ID: email}
	}
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}
