package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/desertthunder/mibands/internal/shared"
)

const (
	defaultMemory     = 64 * 1024
	defaultIterations = 3
	defaultThreads    = 1
	defaultSaltLength = 16
	defaultKeyLength  = 32

	// MinPasswordLength is enforced on sign-up and by the users CLI.
	MinPasswordLength = 8
)

var errInvalidHash = errors.New("invalid argon2id hash")

// Argon2idHash is a parsed PHC-format argon2id hash.
type Argon2idHash struct {
	m    uint32
	t    uint32
	p    uint8
	salt []byte
	sum  []byte
}

// HashPassword returns a PHC string ($argon2id$v=19$m=...,t=...,p=...$salt$sum).
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", shared.ErrInvalidInput, MinPasswordLength)
	}
	salt := make([]byte, defaultSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	sum := argon2.IDKey([]byte(password), salt, defaultIterations, defaultMemory, defaultThreads, defaultKeyLength)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		defaultMemory,
		defaultIterations,
		defaultThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// ParseArgon2idHash parses a PHC string produced by [HashPassword].
func ParseArgon2idHash(phc string) (*Argon2idHash, error) {
	parts := strings.Split(phc, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, fmt.Errorf("%w: bad format", errInvalidHash)
	}
	if parts[2] != "v=19" {
		return nil, fmt.Errorf("%w: unsupported version %s", errInvalidHash, parts[2])
	}

	h := &Argon2idHash{}
	for _, param := range strings.Split(parts[3], ",") {
		key, val, ok := strings.Cut(param, "=")
		if !ok {
			return nil, fmt.Errorf("%w: bad params", errInvalidHash)
		}
		bits := 32
		if key == "p" {
			bits = 8
		}
		n, err := strconv.ParseUint(val, 10, bits)
		if err != nil {
			return nil, fmt.Errorf("%w: bad %s", errInvalidHash, key)
		}
		switch key {
		case "m":
			h.m = uint32(n)
		case "t":
			h.t = uint32(n)
		case "p":
			h.p = uint8(n)
		default:
			return nil, fmt.Errorf("%w: unknown param %s", errInvalidHash, key)
		}
	}
	if h.m == 0 || h.t == 0 || h.p == 0 {
		return nil, fmt.Errorf("%w: missing params", errInvalidHash)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: bad salt", errInvalidHash)
	}
	if h.sum, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.sum) == 0 {
		return nil, fmt.Errorf("%w: bad sum", errInvalidHash)
	}
	return h, nil
}

// Verify reports whether password matches the hash, in constant time.
func (h *Argon2idHash) Verify(password string) bool {
	sum := argon2.IDKey([]byte(password), h.salt, h.t, h.m, h.p, uint32(len(h.sum)))
	return subtle.ConstantTimeCompare(sum, h.sum) == 1
}

// VerifyPassword checks password against a stored PHC string. Malformed or empty
// hashes never match.
func VerifyPassword(phc, password string) bool {
	if phc == "" {
		return false
	}
	h, err := ParseArgon2idHash(phc)
	if err != nil {
		return false
	}
	return h.Verify(password)
}
