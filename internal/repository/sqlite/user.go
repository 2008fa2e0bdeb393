package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users-table view of DB. It exists as its own type because
// users and journal entries both have a natural "Create"/"GetByID", and one
// Go type cannot carry two methods with the same name.
type UserDB struct {
	conn *sql.DB
}

// Users returns the repository for the users table.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Create inserts a new user row.
//
// The username is the primary key, so a duplicate registration fails inside
// SQLite with a PRIMARY KEY constraint error. We translate that into
// apperror.Conflict so the service can show "Username already taken!!" even
// when two sign-ups for the same name race past the service's pre-check.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (user_id, password, profile_picture, github_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.PasswordHash,
		user.ProfilePicture,
		user.GitHubID,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user_id", "Username already taken!!")
		}
		return fmt.Errorf("sqlite: creating user %s: %w", user.ID, err)
	}

	return nil
}

// GetByID retrieves a user (including the password hash) by username.
// Returns apperror.ErrNotFound if no user exists with that username.
func (db *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT user_id, password, profile_picture, github_id, created_at
		 FROM users WHERE user_id = ?`,
		id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByGitHubID looks up the account linked to a GitHub identity.
func (db *UserDB) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT user_id, password, profile_picture, github_id, created_at
		 FROM users WHERE github_id = ?`,
		githubID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", "github:"+strconv.FormatInt(githubID, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user by github_id %d: %w", githubID, err)
	}
	return u, nil
}

// UpdatePassword overwrites the stored hash. Last write wins; there is no
// version column because concurrent password changes are not coordinated.
func (db *UserDB) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return db.updateUserColumn(ctx, id, "password", passwordHash)
}

// UpdateProfilePicture overwrites the stored picture bytes.
func (db *UserDB) UpdateProfilePicture(ctx context.Context, id string, picture []byte) error {
	return db.updateUserColumn(ctx, id, "profile_picture", picture)
}

// GetProfilePicture returns the raw picture bytes.
// A missing user and a user without a picture both return apperror.ErrNotFound.
func (db *UserDB) GetProfilePicture(ctx context.Context, id string) ([]byte, error) {
	var picture []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT profile_picture FROM users WHERE user_id = ?`, id,
	).Scan(&picture)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile picture", id)
		}
		return nil, fmt.Errorf("sqlite: getting profile picture for %s: %w", id, err)
	}
	if len(picture) == 0 {
		return nil, apperror.NotFound("profile picture", id)
	}
	return picture, nil
}

// updateUserColumn runs a single-column UPDATE and reports NotFound when the
// WHERE clause matched nothing.
//
// column is always one of the literals above, never user input, so building
// the statement with Sprintf is safe here. VALUES still go through ? placeholders.
func (db *UserDB) updateUserColumn(ctx context.Context, id, column string, value any) error {
	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s = ? WHERE user_id = ?`, column),
		value, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating %s for user %s: %w", column, id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// scanUser reads one users row. sql.Row and sql.Rows both satisfy the
// anonymous interface, so the same column order is shared by every SELECT.
func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.PasswordHash, &u.ProfilePicture, &githubID, &u.CreatedAt); err != nil {
		return nil, err
	}
	if githubID.Valid {
		id := githubID.Int64
		u.GitHubID = &id
	}
	return &u, nil
}
