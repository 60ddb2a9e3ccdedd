package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"conduit/internal/apperr"
	"conduit/internal/auth"
	"conduit/internal/logger"
	"conduit/internal/models"
	"conduit/internal/repository"
)

// PasswordHasher is the credential policy the user service relies on.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) (bool, error)
	NeedsRehash(encodedHash string) bool
}

type TokenIssuer interface {
	IssueToken(userID uuid.UUID) (string, error)
}

// Registration is the input of sign-up.
type Registration struct {
	Username string
	Email    string
	Password string
}

const reasonTaken = "username or email is already taken"

// fallbackDummyHash is only used if hashing the startup dummy fails.
const fallbackDummyHash = "$argon2id$v=19$m=65536,t=2,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// UserService handles user auth logic
type UserService struct {
	users  repository.Users
	hasher PasswordHasher
	tokens TokenIssuer
	log    *logger.Logger
	tracer trace.Tracer

	// dummyHash is verified against when the email is unknown so both paths cost the same.
	dummyHash string
}

func NewUserService(users repository.Users, hasher PasswordHasher, tokens TokenIssuer, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.Nop()
	}
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		dummy = fallbackDummyHash
	}
	return &UserService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		log:       log,
		tracer:    otel.Tracer("conduit/internal/service"),
		dummyHash: dummy,
	}
}

// Register creates the account and returns it logged in.
func (s *UserService) Register(ctx context.Context, in Registration) (*models.LoggedInUser, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, models.User{Username: in.Username, Email: in.Email}, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindConflict, reasonTaken, err)
		}
		return nil, err
	}

	token, err := s.tokens.IssueToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.log.Infow("user_registered", "user_id", u.ID.String())
	return models.NewLoggedInUser(*u, token), nil
}

// Login checks the password, upgrades a stale hash and issues a fresh token.
// Unknown email and wrong password give the same answer.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.LoggedInUser, error) {
	ctx, span := s.tracer.Start(ctx, "user.login")
	defer span.End()

	acc, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		auth.RecordLogin(auth.LoginStoreFailed)
		s.log.LogErr("auth_login_lookup_failed", err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, apperr.Wrap(apperr.KindIdentityStoreUnavailable, auth.ReasonStoreUnavailable, err)
	}
	if acc == nil {
		_, _ = s.hasher.Verify(s.dummyHash, password)
		auth.RecordLogin(auth.LoginRejected)
		return nil, apperr.Unauthenticated(auth.ReasonInvalidCreds)
	}

	ok, err := s.hasher.Verify(acc.Credentials.PasswordHash, password)
	if err != nil {
		auth.RecordLogin(auth.LoginCorrupt)
		s.log.LogErr("auth_corrupt_credential", err, "user_id", acc.User.ID.String())
		span.SetStatus(codes.Error, "corrupt credential")
		return nil, apperr.Wrap(apperr.KindCorruptCredential, auth.ReasonInvalidCreds, err)
	}
	if !ok {
		auth.RecordLogin(auth.LoginRejected)
		s.log.Infow("auth_login_failed", "user_id", acc.User.ID.String())
		return nil, apperr.Unauthenticated(auth.ReasonInvalidCreds)
	}

	s.upgradeHash(ctx, acc, password)

	token, err := s.tokens.IssueToken(acc.User.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	auth.RecordLogin(auth.LoginSucceeded)
	return models.NewLoggedInUser(acc.User, token), nil
}

// upgradeHash rehashes under the current parameters when needed. Failures are
// logged and never fail the login.
func (s *UserService) upgradeHash(ctx context.Context, acc *models.Account, password string) {
	if !s.hasher.NeedsRehash(acc.Credentials.PasswordHash) {
		return
	}
	userID := acc.User.ID.String()

	hash, err := s.hasher.Hash(password)
	if err != nil {
		auth.RecordRehash(auth.RehashHashFailed)
		s.log.Warnw("auth_rehash_failed", append(logger.ErrFields(err), "user_id", userID)...)
		return
	}
	if err := s.users.UpdateCredentials(ctx, acc.User.ID, hash); err != nil {
		auth.RecordRehash(auth.RehashPersistError)
		s.log.Warnw("auth_rehash_persist_failed", append(logger.ErrFields(err), "user_id", userID)...)
		return
	}
	auth.RecordRehash(auth.RehashUpgraded)
	s.log.Infow("auth_rehash_upgraded", "user_id", userID)
}

// Update edits the caller's account. The presented token stays valid and is echoed back.
func (s *UserService) Update(ctx context.Context, current *models.LoggedInUser, upd models.UserUpdate) (*models.LoggedInUser, error) {
	if err := validateUserUpdate(&upd); err != nil {
		return nil, err
	}

	var hash *string
	if upd.Password != nil {
		h, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = &h
		upd.Password = nil
	}

	u, err := s.users.Update(ctx, current.ID, upd, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindConflict, reasonTaken, err)
		}
		return nil, err
	}
	if u == nil {
		return nil, apperr.Unauthenticated(auth.ReasonInvalidCreds)
	}
	return models.NewLoggedInUser(*u, current.Token), nil
}

func validateRegistration(in Registration) error {
	switch {
	case in.Username == "":
		return apperr.InvalidInput("username can't be blank")
	case in.Email == "":
		return apperr.InvalidInput("email can't be blank")
	case !strings.Contains(in.Email, "@"):
		return apperr.InvalidInput("email is invalid")
	case in.Password == "":
		return apperr.InvalidInput("password can't be blank")
	}
	return nil
}

func validateUserUpdate(upd *models.UserUpdate) error {
	if upd.Username != nil {
		trimmed := strings.TrimSpace(*upd.Username)
		if trimmed == "" {
			return apperr.InvalidInput("username can't be blank")
		}
		upd.Username = &trimmed
	}
	if upd.Email != nil {
		trimmed := strings.TrimSpace(*upd.Email)
		if !strings.Contains(trimmed, "@") {
			return apperr.InvalidInput("email is invalid")
		}
		upd.Email = &trimmed
	}
	if upd.Password != nil && *upd.Password == "" {
		return apperr.InvalidInput("password can't be blank")
	}
	return nil
}
