package constants

// Redis key layout. Keys are assembled by the storage layer; the constants
// here are the stable prefixes so they can be scanned or purged together.
const (
	// ProcessIngestLockPrefix + <process id> guards one ingestion run per
	// charge process. Held with an expiry so a crashed worker cannot wedge
	// the process.
	ProcessIngestLockPrefix = "lock:process:ingest:"

	// RefreshTokenPrefix + <jti> marks a refresh token as still valid.
	RefreshTokenPrefix = "auth:refresh:"
)

// ProcessIngestLockTTL bounds how long an ingestion lease may be held
// before it expires on its own (the run renews nothing; the TTL must cover
// the slowest realistic folder).
const ProcessIngestLockTTLSeconds = 30 * 60
