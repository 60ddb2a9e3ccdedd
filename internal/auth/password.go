// Package auth holds the request authentication core: password credentials,
// signed access tokens and per-request identity resolution.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrCorruptCredential marks a stored hash that cannot be parsed. It is a
// data-integrity problem, not a wrong password.
var ErrCorruptCredential = errors.New("corrupt credential")

const (
	codeInvalidHash = "AUTH_INVALID_HASH"
	codeHashFailed  = "AUTH_HASH_FAILED"

	argon2idPrefix = "$argon2id$"
)

// PasswordParams are the argon2id cost parameters embedded in every hash.
type PasswordParams struct {
	Time       uint32 // iterations
	MemoryKiB  uint32
	Threads    uint8
	KeyLength  uint32
	SaltLength uint32
}

// DefaultPasswordParams is the target for new hashes unless configured otherwise.
var DefaultPasswordParams = PasswordParams{
	Time:       2,
	MemoryKiB:  64 * 1024,
	Threads:    2,
	KeyLength:  32,
	SaltLength: 16,
}

// PasswordHasher hashes with argon2id under fixed target parameters and
// verifies argon2id or legacy bcrypt hashes.
type PasswordHasher struct {
	params PasswordParams
}

// NewPasswordHasher returns a hasher targeting p. Zero fields fall back to DefaultPasswordParams.
func NewPasswordHasher(p PasswordParams) *PasswordHasher {
	if p.Time == 0 {
		p.Time = DefaultPasswordParams.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultPasswordParams.MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = DefaultPasswordParams.Threads
	}
	if p.KeyLength == 0 {
		p.KeyLength = DefaultPasswordParams.KeyLength
	}
	if p.SaltLength == 0 {
		p.SaltLength = DefaultPasswordParams.SaltLength
	}
	return &PasswordHasher{params: p}
}

// Params returns the target parameters.
func (h *PasswordHasher) Params() PasswordParams { return h.params }

// Hash produces a PHC-formatted argon2id hash:
//
//	$argon2id$v=19$m=65536,t=2,p=2$<salt>$<key>
//
// Any password is accepted, including the empty string; rejecting weak
// passwords is left to the caller.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code(codeHashFailed).Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encodedHash. A mismatch is (false, nil);
// an error wrapping ErrCorruptCredential means the stored hash is unusable.
func (h *PasswordHasher) Verify(encodedHash, password string) (bool, error) {
	if isBcrypt(encodedHash) {
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, corrupt(err, "invalid bcrypt hash")
		}
	}

	parsed, err := parseArgon2id(encodedHash)
	if err != nil {
		return false, err
	}
	if parsed.version != argon2.Version {
		return false, corrupt(nil, "unsupported argon2 version %d", parsed.version)
	}

	computed := argon2.IDKey([]byte(password), parsed.salt, parsed.params.Time, parsed.params.MemoryKiB, parsed.params.Threads, parsed.params.KeyLength)

	// Constant-time comparison
	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced under anything other than
// the current target: another algorithm, another argon2 version or other costs.
// Unparsable hashes need a rehash too.
func (h *PasswordHasher) NeedsRehash(encodedHash string) bool {
	parsed, err := parseArgon2id(encodedHash)
	if err != nil {
		return true
	}
	return parsed.version != argon2.Version || parsed.params != h.params
}

type argon2idHash struct {
	version int
	params  PasswordParams
	salt    []byte
	key     []byte
}

func parseArgon2id(encoded string) (*argon2idHash, error) {
	if !strings.HasPrefix(encoded, argon2idPrefix) {
		return nil, corrupt(nil, "unsupported hash algorithm")
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, corrupt(nil, "invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, corrupt(err, "invalid version segment")
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return nil, corrupt(err, "invalid parameter segment")
	}
	if threads == 0 || threads > 255 {
		return nil, corrupt(nil, "threads value %d out of range", threads)
	}
	if memory == 0 || iterations == 0 {
		return nil, corrupt(nil, "zero cost parameter")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, corrupt(err, "invalid salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > 1<<10 {
		return nil, corrupt(err, "invalid key")
	}

	return &argon2idHash{
		version: version,
		params: PasswordParams{
			Time:       iterations,
			MemoryKiB:  memory,
			Threads:    uint8(threads),
			KeyLength:  uint32(len(key)),
			SaltLength: uint32(len(salt)),
		},
		salt: salt,
		key:  key,
	}, nil
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func corrupt(cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return oops.Code(codeInvalidHash).Wrapf(ErrCorruptCredential, "%s", msg)
}
