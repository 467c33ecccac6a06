package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwise1/moment_stack/internal/db"
	"github.com/bwise1/moment_stack/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, password_hash, avatar_url, created_at, updated_at`

type Repository struct {
	db *db.DB
}

func NewRepository(database *db.DB) *Repository {
	return &Repository{db: database}
}

// Create inserts a user. Duplicate emails and usernames map to ErrEmailTaken and ErrUsernameTaken.
func (r *Repository) Create(ctx context.Context, u model.User) (model.User, error) {
	stmt := fmt.Sprintf(`
		INSERT INTO users (id, username, email, password_hash, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, userColumns)

	created, err := scanUser(r.db.Pool().QueryRow(ctx, stmt, u.ID, u.Username, u.Email, u.PasswordHash, u.AvatarURL))
	if err != nil {
		return model.User{}, userError("create user", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	u, err := scanUser(r.db.Pool().QueryRow(ctx, stmt, id))
	if err != nil {
		return model.User{}, userError("get user", err)
	}
	return u, nil
}

// GetByEmail matches case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email) = LOWER($1)`, userColumns)
	u, err := scanUser(r.db.Pool().QueryRow(ctx, stmt, email))
	if err != nil {
		return model.User{}, userError("get user by email", err)
	}
	return u, nil
}

// Update applies the non-nil fields of req.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (model.User, error) {
	var (
		sets []string
		args = []any{id}
	)
	set := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	set("username", req.Username)
	set("email", req.Email)
	set("avatar_url", req.AvatarURL)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	stmt := fmt.Sprintf(`
		UPDATE users SET %s, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, strings.Join(sets, ", "), userColumns)

	u, err := scanUser(r.db.Pool().QueryRow(ctx, stmt, args...))
	if err != nil {
		return model.User{}, userError("update user", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func userError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "username") {
			return model.ErrUsernameTaken
		}
		return model.ErrEmailTaken
	}
	return &model.StoreError{Op: op, Err: err}
}
