package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// UserService registers and authenticates accounts.
type UserService struct {
	st                  Store
	hasher              PasswordHasher
	registrationEnabled bool
	// dummyHash is verified against for unknown usernames so both outcomes cost one hash check.
	dummyHash string
}

func NewUserService(st Store, hasher PasswordHasher, registrationEnabled bool) (UserService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return UserService{}, err
	}
	return UserService{st: st, hasher: hasher, registrationEnabled: registrationEnabled, dummyHash: dummy}, nil
}

// RegistrationEnabled reports whether Register accepts new accounts.
func (s UserService) RegistrationEnabled() bool { return s.registrationEnabled }

// Register creates an account. The password is stored only as a hash.
func (s UserService) Register(ctx context.Context, c Credentials) (User, error) {
	if !s.registrationEnabled {
		return User{}, ErrRegistrationDisabled
	}
	if c.Username == "" {
		return User{}, invalid("username", "must not be empty")
	}
	if c.Password == "" {
		return User{}, invalid("password", "must not be empty")
	}
	hash, err := s.hasher.Hash(c.Password)
	if err != nil {
		return User{}, err
	}
	u := User{ID: uuid.New(), Username: c.Username, PasswordHash: hash}
	err = s.st.WriteTx(ctx, func(tx Tx) error {
		existing, err := tx.UserByUsername(ctx, u.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateUsername
		}
		return tx.InsertUser(ctx, u)
	})
	if err != nil {
		return User{}, err
	}
	log.WithField("user", u.ID).Info("user registered")
	return u, nil
}

// Authenticate checks a username/password pair.
func (s UserService) Authenticate(ctx context.Context, c Credentials) (User, error) {
	u, err := s.lookup(ctx, c.Username)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		s.hasher.Verify(c.Password, s.dummyHash)
		return User{}, ErrInvalidCredentials
	}
	if !s.hasher.Verify(c.Password, u.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return *u, nil
}

// UserByUsername resolves a token subject to an existing account.
func (s UserService) UserByUsername(ctx context.Context, username string) (User, error) {
	u, err := s.lookup(ctx, username)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, fmt.Errorf("%w: unknown subject", ErrUnauthenticated)
	}
	return *u, nil
}

func (s UserService) lookup(ctx context.Context, username string) (*User, error) {
	var u *User
	err := s.st.ReadTx(ctx, func(tx Tx) error {
		var err error
		u, err = tx.UserByUsername(ctx, username)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}
