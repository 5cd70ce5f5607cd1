// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/wattgrid/marketplace-api/internal/config"
)

var ErrInvalidPasswordHash = errors.New("invalid password hash")

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// PasswordHasher produces PHC-style argon2id strings with the configured
// cost. Hashes made under other parameters still verify and are reported
// for rehash.
type PasswordHasher struct {
	params  argonParams
	saltLen int

	dummyOnce sync.Once
	dummy     string
}

func NewPasswordHasher(cfg config.PasswordConfig) *PasswordHasher {
	return &PasswordHasher{
		params: argonParams{
			memory:  cfg.Memory,
			time:    cfg.Iterations,
			threads: cfg.Parallelism,
			keyLen:  cfg.KeyLength,
		},
		saltLen: cfg.SaltLength,
	}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	p := h.params
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against encoded using the parameters stored in the
// hash itself.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	p, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	other := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

// VerifyTimingSafe always spends one argon2 derivation, against a dummy hash
// when the account has none, so unknown emails cost the same as wrong
// passwords. A non-empty second result is a replacement hash under the
// current parameters.
func (h *PasswordHasher) VerifyTimingSafe(
	password string,
	encoded *string,
) (bool, string, error) {
	if encoded == nil || *encoded == "" {
		if dummy := h.dummyHash(); dummy != "" {
			//nolint:errcheck // result discarded, only the cost matters
			_, _ = h.Verify(password, dummy)
		}
		return false, "", nil
	}

	valid, err := h.Verify(password, *encoded)
	if err != nil || !valid {
		return false, "", err
	}

	if !h.needsRehash(*encoded) {
		return true, "", nil
	}

	rehashed, err := h.Hash(password)
	if err != nil {
		//nolint:nilerr // password verified; a failed upgrade is retried next login
		return true, "", nil
	}
	return true, rehashed, nil
}

func (h *PasswordHasher) dummyHash() string {
	h.dummyOnce.Do(func() {
		//nolint:errcheck // empty dummy only skips the equalising derivation
		h.dummy, _ = h.Hash("wattgrid-timing-equaliser")
	})
	return h.dummy
}

func (h *PasswordHasher) needsRehash(encoded string) bool {
	p, _, _, err := decodeHash(encoded)
	if err != nil {
		return true
	}
	return *p != h.params
}

func decodeHash(encoded string) (*argonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, nil, nil, fmt.Errorf("%w: format", ErrInvalidPasswordHash)
	}

	if parts[1] != "argon2id" {
		return nil, nil, nil, fmt.Errorf("%w: algorithm %s", ErrInvalidPasswordHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: version: %w", ErrInvalidPasswordHash, err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("%w: version %d", ErrInvalidPasswordHash, version)
	}

	p := &argonParams{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: params: %w", ErrInvalidPasswordHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: salt: %w", ErrInvalidPasswordHash, err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: key: %w", ErrInvalidPasswordHash, err)
	}

	//nolint:gosec // G115: argon2 keys are tens of bytes
	p.keyLen = uint32(len(key))

	return p, salt, key, nil
}
