package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for identity resolution.
const (
	outcomeAnonymous        = "anonymous"
	outcomeAuthenticated    = "authenticated"
	outcomeMissingHeader    = "missing_header"
	outcomeInvalidScheme    = "invalid_scheme"
	outcomeInvalidToken     = "invalid_token"
	outcomeUnknownSubject   = "unknown_subject"
	outcomeStoreUnavailable = "store_unavailable"
)

// Result labels for logins and password upgrades.
const (
	LoginSucceeded     = "succeeded"
	LoginRejected      = "rejected"
	LoginCorrupt       = "corrupt_credential"
	LoginStoreFailed   = "store_unavailable"
	RehashUpgraded     = "upgraded"
	RehashHashFailed   = "hash_failed"
	RehashPersistError = "persist_failed"
)

var (
	identityResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conduit",
		Subsystem: "auth",
		Name:      "identity_resolutions_total",
		Help:      "Identity resolutions by outcome",
	}, []string{"outcome"})

	tokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "conduit",
		Subsystem: "auth",
		Name:      "tokens_issued_total",
		Help:      "Access tokens issued",
	})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conduit",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by result",
	}, []string{"result"})

	passwordRehashes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conduit",
		Subsystem: "auth",
		Name:      "password_rehashes_total",
		Help:      "Rehash-on-login attempts by result",
	}, []string{"result"})
)

// RecordLogin counts a login attempt under one of the Login* results.
func RecordLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

// RecordRehash counts a rehash-on-login attempt under one of the Rehash* results.
func RecordRehash(result string) {
	passwordRehashes.WithLabelValues(result).Inc()
}
