package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/tokenauth"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// ErrDuplicateUsername is returned when creating a user whose username is
// taken.
var ErrDuplicateUsername = errors.New("username already exists")

type userRecord struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (r *userRecord) toUser() tokenauth.User {
	return tokenauth.User{
		ID:           r.ID.String(),
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
	}
}

// SQLStore reads and writes the users table through bun.
type SQLStore struct {
	db *bun.DB
}

// NewSQLStore wraps an open bun database. The caller owns db.
func NewSQLStore(db *bun.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenSQLite opens dsn with the sqlite driver bundled by sqliteshim.
// ":memory:" databases are pinned to one connection so every query sees
// the same schema.
func OpenSQLite(dsn string) (*SQLStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") {
		sqldb.SetMaxOpenConns(1)
	}
	return NewSQLStore(bun.NewDB(sqldb, sqlitedialect.New())), nil
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *bun.DB {
	return s.db
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// CreateSchema creates the users table when it does not exist.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*userRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Create inserts a user with a fresh UUID id.
func (s *SQLStore) Create(ctx context.Context, username, passwordHash string) (tokenauth.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return tokenauth.User{}, tokenauth.ErrUsernameRequired
	}
	if passwordHash == "" {
		return tokenauth.User{}, errors.New("password hash required")
	}

	record := &userRecord{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return tokenauth.User{}, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
		}
		return tokenauth.User{}, err
	}
	return record.toUser(), nil
}

// UpdatePasswordHash replaces the stored hash for username.
func (s *SQLStore) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	res, err := s.db.NewUpdate().
		Model((*userRecord)(nil)).
		Set("password_hash = ?", passwordHash).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", tokenauth.ErrUserNotFound, username)
	}
	return nil
}

// Delete removes username. Deleting an unknown user is a no-op.
func (s *SQLStore) Delete(ctx context.Context, username string) error {
	_, err := s.db.NewDelete().
		Model((*userRecord)(nil)).
		Where("username = ?", username).
		Exec(ctx)
	return err
}

func (s *SQLStore) FindByUsername(ctx context.Context, username string) (tokenauth.User, error) {
	record := new(userRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tokenauth.User{}, fmt.Errorf("%w: %s", tokenauth.ErrUserNotFound, username)
		}
		return tokenauth.User{}, err
	}
	return record.toUser(), nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
