package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Argon2Params are the argon2id cost parameters embedded in every hash string.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params follows the OWASP baseline for argon2id (19 MiB, t=2, p=1).
var DefaultArgon2Params = Argon2Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

var b64 = base64.RawStdEncoding

// PasswordHasher hashes and verifies account passwords.
//
// New hashes are argon2id in PHC string format:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<digest>
//
// Verification also accepts bcrypt hashes ($2a$, $2b$, $2y$) so accounts
// provisioned by older tooling keep working.
type PasswordHasher struct {
	params Argon2Params
	slots  *semaphore.Weighted
}

// HasherOption configures a PasswordHasher.
type HasherOption func(*PasswordHasher)

// WithArgon2Params overrides the cost parameters used for new hashes.
func WithArgon2Params(p Argon2Params) HasherOption {
	return func(h *PasswordHasher) {
		h.params = p
	}
}

// WithConcurrency bounds how many hash computations run at once.
func WithConcurrency(n int) HasherOption {
	return func(h *PasswordHasher) {
		if n > 0 {
			h.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewPasswordHasher returns a hasher limited to GOMAXPROCS concurrent computations.
func NewPasswordHasher(opts ...HasherOption) *PasswordHasher {
	h := &PasswordHasher{
		params: DefaultArgon2Params,
		slots:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash derives a new argon2id hash with a fresh random salt.
// It blocks while all hashing slots are busy and returns ctx.Err() if the
// context ends first.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	p := h.params
	key := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether plaintext matches the stored hash.
// Any malformed or unsupported hash yields false.
func (h *PasswordHasher) Verify(ctx context.Context, plaintext, encoded string) bool {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.slots.Release(1)

	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(plaintext, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext)) == nil
	default:
		return false
	}
}

var errMalformedHash = errors.New("malformed argon2id hash")

// Upper bounds accepted from a stored hash. Anything larger is treated as malformed.
const (
	maxArgon2Memory     = 1 << 20 // KiB, 1 GiB
	maxArgon2Iterations = 16
	maxArgon2SaltLength = 64
	maxArgon2KeyLength  = 64
)

func verifyArgon2id(plaintext, encoded string) bool {
	p, salt, digest, err := decodeArgon2id(encoded)
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(digest)))
	return subtle.ConstantTimeCompare(digest, other) == 1
}

func decodeArgon2id(encoded string) (Argon2Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, digest
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	var p Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return Argon2Params{}, nil, nil, errMalformedHash
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return Argon2Params{}, nil, nil, errMalformedHash
	}
	if p.Memory > maxArgon2Memory || p.Iterations > maxArgon2Iterations {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 || len(salt) > maxArgon2SaltLength {
		return Argon2Params{}, nil, nil, errMalformedHash
	}
	digest, err := b64.DecodeString(parts[5])
	if err != nil || len(digest) == 0 || len(digest) > maxArgon2KeyLength {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(digest))
	return p, salt, digest, nil
}
