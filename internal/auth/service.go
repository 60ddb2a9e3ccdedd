package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"conduit/internal/logger"
)

// DefaultTokenTTL is how long an issued access token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Clock returns the current time. Tests inject a fixed one.
type Clock func() time.Time

// Service issues and verifies access tokens. It holds no mutable state and is
// safe for concurrent use.
type Service struct {
	codec *TokenCodec
	ttl   time.Duration
	now   Clock
	log   *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) { s.now = c }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewAuthService returns a Service signing with secret.
func NewAuthService(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret is empty")
	}
	s := &Service{
		codec: NewTokenCodec([]byte(secret)),
		ttl:   DefaultTokenTTL,
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueToken returns a token for userID expiring ttl from now.
func (s *Service) IssueToken(userID uuid.UUID) (string, error) {
	token, err := s.codec.Encode(userID.String(), s.now().Add(s.ttl))
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	tokensIssued.Inc()
	return token, nil
}

// VerifyToken returns the user id a valid token was issued for. Any failure,
// including a subject that is not a UUID, is reported as ErrInvalidToken.
func (s *Service) VerifyToken(token string) (uuid.UUID, error) {
	subject, err := s.codec.Decode(token, s.now())
	if err != nil {
		s.log.Debugw("auth_token_rejected", logger.ErrFields(err)...)
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(subject)
	if err != nil {
		s.log.Debugw("auth_token_rejected", "reason", "subject", "err", err)
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
