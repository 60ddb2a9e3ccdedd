package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"conduit/internal/apperr"
	"conduit/internal/logger"
	"conduit/internal/models"
)

// TokenScheme is the literal Authorization prefix clients must send.
// It is "Token ", not "Bearer ".
const TokenScheme = "Token "

// Client-facing reasons. A bad token and an unknown subject share one reason,
// and none of them says which token check failed.
const (
	ReasonMissingHeader    = "missing authorization header"
	ReasonInvalidScheme    = "invalid scheme in authorization header"
	ReasonInvalidCreds     = "invalid credentials"
	ReasonStoreUnavailable = "identity store unavailable"
)

const tracerName = "conduit/internal/auth"

// TokenVerifier extracts the user id from a presented access token.
type TokenVerifier interface {
	VerifyToken(token string) (uuid.UUID, error)
}

// UserDirectory is the user store the auth core reads and writes.
// Lookups return nil, nil when no user matches.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, u models.User, passwordHash string) (*models.User, error)
	UpdateCredentials(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// Resolver turns an Authorization header value into a LoggedInUser.
type Resolver struct {
	tokens TokenVerifier
	users  UserDirectory
	log    *logger.Logger
	tracer trace.Tracer
}

// NewResolver wires a Resolver. A nil log discards output.
func NewResolver(tokens TokenVerifier, users UserDirectory, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		tokens: tokens,
		users:  users,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
}

// Require resolves the caller and fails with Unauthenticated when there is none.
func (r *Resolver) Require(ctx context.Context, header string) (*models.LoggedInUser, error) {
	return r.Resolve(ctx, header, true)
}

// Optional resolves the caller if a header was sent; anonymous requests yield nil, nil.
// A header that is present but invalid still fails.
func (r *Resolver) Optional(ctx context.Context, header string) (*models.LoggedInUser, error) {
	return r.Resolve(ctx, header, false)
}

// Resolve implements Require and Optional. An empty header counts as absent.
func (r *Resolver) Resolve(ctx context.Context, header string, required bool) (*models.LoggedInUser, error) {
	ctx, span := r.tracer.Start(ctx, "auth.resolve_identity",
		trace.WithAttributes(attribute.Bool("auth.required", required)))
	defer span.End()

	user, outcome, err := r.resolve(ctx, header, required)

	identityResolutions.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("auth.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return user, err
}

func (r *Resolver) resolve(ctx context.Context, header string, required bool) (*models.LoggedInUser, string, error) {
	if header == "" {
		if !required {
			return nil, outcomeAnonymous, nil
		}
		return nil, outcomeMissingHeader, apperr.Unauthenticated(ReasonMissingHeader)
	}

	if !strings.HasPrefix(header, TokenScheme) {
		return nil, outcomeInvalidScheme, apperr.Unauthenticated(ReasonInvalidScheme)
	}
	token := header[len(TokenScheme):]

	userID, err := r.tokens.VerifyToken(token)
	if err != nil {
		return nil, outcomeInvalidToken, apperr.Wrap(apperr.KindUnauthenticated, ReasonInvalidCreds, err)
	}

	u, err := r.users.FindByID(ctx, userID)
	if err != nil {
		r.log.LogErr("identity_lookup_failed", err, "user_id", userID.String())
		return nil, outcomeStoreUnavailable, apperr.Wrap(apperr.KindIdentityStoreUnavailable, ReasonStoreUnavailable, err)
	}
	if u == nil {
		// Same outward answer as a forged token.
		r.log.Infow("identity_unknown_subject", "user_id", userID.String())
		return nil, outcomeUnknownSubject, apperr.Unauthenticated(ReasonInvalidCreds)
	}

	return models.NewLoggedInUser(*u, token), outcomeAuthenticated, nil
}
