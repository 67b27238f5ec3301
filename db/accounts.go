package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"marketplace/models"
)

// User + Profile + Token (Пользователь)

const userColumns = `u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
        u.is_active, u.is_staff, u.date_joined`

const profileSelect = `
        SELECT p.id, p.user_id, p.file, p.location, p.tel, p.description, p.working_hours, p.type,
               u.username, u.email, u.first_name, u.last_name, u.date_joined
        FROM user_profile p
        JOIN auth_user u ON u.id = p.user_id`

// CreateAccount создаёт пользователя, его профиль и токен одной транзакцией
func (s *Storage) CreateAccount(ctx context.Context, u *models.User, p *models.Profile, t *models.Token) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
        INSERT INTO auth_user (username, email, password_hash, first_name, last_name, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, date_joined`
		err := tx.QueryRowContext(ctx, query,
			u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsActive).
			Scan(&u.ID, &u.DateJoined)
		if err != nil {
			return err
		}

		p.UserID = u.ID
		query = `
        INSERT INTO user_profile (user_id, file, location, tel, description, working_hours, type)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`
		err = tx.QueryRowContext(ctx, query,
			p.UserID, p.File, p.Location, p.Tel, p.Description, p.WorkingHours, p.Type).
			Scan(&p.ID)
		if err != nil {
			return err
		}

		t.UserID = u.ID
		query = `INSERT INTO auth_token (key, user_id) VALUES ($1, $2) RETURNING created_at`
		return tx.QueryRowContext(ctx, query, t.Key, t.UserID).Scan(&t.CreatedAt)
	})
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT ` + userColumns + ` FROM auth_user u WHERE u.username = $1`
	if err := s.db.GetContext(ctx, u, query, username); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Storage) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM auth_user WHERE username = $1)`
	err := s.db.GetContext(ctx, &exists, query, username)
	return exists, err
}

func (s *Storage) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM auth_user WHERE LOWER(email) = LOWER($1))`
	err := s.db.GetContext(ctx, &exists, query, email)
	return exists, err
}

// GetOrCreateToken возвращает существующий токен пользователя или сохраняет t
func (s *Storage) GetOrCreateToken(ctx context.Context, t *models.Token) error {
	query := `
        INSERT INTO auth_token (key, user_id)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING key, created_at`
	return s.db.QueryRowContext(ctx, query, t.Key, t.UserID).Scan(&t.Key, &t.CreatedAt)
}

func (s *Storage) GetAccountByToken(ctx context.Context, key string) (*models.Account, error) {
	a := &models.Account{}
	query := `
        SELECT ` + userColumns + `, p.type
        FROM auth_token t
        JOIN auth_user u ON u.id = t.user_id
        JOIN user_profile p ON p.user_id = u.id
        WHERE t.key = $1`
	if err := s.db.GetContext(ctx, a, query, key); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Storage) GetProfile(ctx context.Context, userID int64) (*models.ProfileWithUser, error) {
	p := &models.ProfileWithUser{}
	query := profileSelect + ` WHERE p.user_id = $1`
	if err := s.db.GetContext(ctx, p, query, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Storage) ListProfiles(ctx context.Context, role models.Role) ([]models.ProfileWithUser, error) {
	profiles := []models.ProfileWithUser{}
	query := profileSelect + ` WHERE p.type = $1 ORDER BY p.user_id`
	if err := s.db.SelectContext(ctx, &profiles, query, role); err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateProfile сохраняет изменяемые поля профиля и аккаунта. type не меняется никогда.
func (s *Storage) UpdateProfile(ctx context.Context, p *models.ProfileWithUser) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
        UPDATE user_profile
        SET file = $1, location = $2, tel = $3, description = $4, working_hours = $5
        WHERE user_id = $6`
		if err := mustAffect(tx.ExecContext(ctx, query,
			p.File, p.Location, p.Tel, p.Description, p.WorkingHours, p.UserID)); err != nil {
			return err
		}
		query = `
        UPDATE auth_user
        SET first_name = $1, last_name = $2, email = $3
        WHERE id = $4`
		return mustAffect(tx.ExecContext(ctx, query, p.FirstName, p.LastName, p.Email, p.UserID))
	})
}

func (s *Storage) IsBusinessUser(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM user_profile WHERE user_id = $1 AND type = 'business')`
	err := s.db.GetContext(ctx, &exists, query, userID)
	return exists, err
}
