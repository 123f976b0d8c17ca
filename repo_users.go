package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

// pgUniqueViolation is the SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

type Users interface {
	repository.Repository[*User]
	IdentityStore

	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id string) (*User, error)
	InsertTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
}

type users struct {
	repository.Repository[*User]
	now func() time.Time
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

type UsersOption func(*users)

// WithUsersClock overrides the time source used for timestamps
func WithUsersClock(now func() time.Time) UsersOption {
	return func(u *users) {
		if now != nil {
			u.now = now
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := &users{
		Repository: repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
			NewRecord: func() *User { return &User{} },
			GetID: func(u *User) uuid.UUID {
				if u == nil {
					return uuid.Nil
				}
				return u.ID
			},
			SetID: func(u *User, id uuid.UUID) {
				if u != nil {
					u.ID = id
				}
			},
			GetIdentifier: func() string {
				return "email"
			},
			GetIdentifierValue: func(u *User) string {
				if u == nil {
					return ""
				}
				return u.Email
			},
		}),
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

// NormalizeEmail trims and lower cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrIdentityNotFound
	}
	user, err := a.GetByIdentifier(ctx, email)
	return lookupResult(user, err, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrIdentityNotFound
	}
	user, err := a.GetByIdentifierTx(ctx, tx, email)
	return lookupResult(user, err, email)
}

func (a *users) FindByID(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrIdentityNotFound
	}
	user, err := a.GetByID(ctx, uid.String())
	return lookupResult(user, err, uid.String())
}

func (a *users) FindByIDTx(ctx context.Context, tx bun.IDB, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrIdentityNotFound
	}
	user, err := a.GetByIDTx(ctx, tx, uid.String())
	return lookupResult(user, err, uid.String())
}

func (a *users) Insert(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, errors.New("user must not be nil")
	}
	prepareUserDefaults(user, a.now())
	created, err := a.Create(ctx, user)
	return insertResult(created, err)
}

func (a *users) InsertTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user == nil {
		return nil, errors.New("user must not be nil")
	}
	prepareUserDefaults(user, a.now())
	created, err := a.CreateTx(ctx, tx, user)
	return insertResult(created, err)
}

func lookupResult(user *User, err error, identifier string) (*User, error) {
	if err == nil {
		return user, nil
	}
	if repository.IsRecordNotFound(err) {
		return nil, withCause(ErrIdentityNotFound, err).WithMetadata(map[string]any{
			"identifier": identifier,
		})
	}
	return nil, err
}

func insertResult(user *User, err error) (*User, error) {
	if err == nil {
		return user, nil
	}
	if isUniqueViolation(err) {
		return nil, withCause(ErrDuplicateEmail, err)
	}
	return nil, err
}

func prepareUserDefaults(record *User, now time.Time) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = NormalizeEmail(record.Email)

	now = now.UTC()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	record.UpdatedAt = &now
}

// isUniqueViolation recognizes unique constraint errors. The repository
// maps lib/pq and mattn sqlite errors itself, pgx and the pure Go sqlite
// driver come through as the wrapped source.
func isUniqueViolation(err error) bool {
	if repository.IsDuplicatedKey(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(goerrors.RootCause(err).Error(), "UNIQUE constraint failed")
}
