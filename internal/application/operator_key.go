package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidKeyHash         = errors.New("invalid operator key hash format")
	ErrIncompatibleKeyVersion = errors.New("incompatible operator key hash version")
)

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// CreateKeyHash derives an encoded argon2id hash for an operator API key.
func CreateKeyHash(key string, params Argon2idParams) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("operator key must not be blank")
	}

	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(key), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// Format is $argon2id$v=19$m=...,t=...,p=...$salt$hash
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash), nil
}

// VerifyKey checks key against an encoded hash produced by CreateKeyHash.
func VerifyKey(encodedHash, key string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return ErrInvalidKeyHash
	}

	if parts[1] != "argon2id" {
		return ErrInvalidKeyHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return err
	}
	if version != argon2.Version {
		return ErrIncompatibleKeyVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return err
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return err
	}
	params.KeyLength = uint32(len(decodedHash))

	comparisonHash := argon2.IDKey([]byte(key), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return nil
	}

	return ErrUnauthorized
}

// OperatorAuthenticator guards operator only operations with a shared API key.
type OperatorAuthenticator struct {
	hash string
}

// NewOperatorAuthenticator validates the configured hash. An empty hash yields
// a disabled authenticator that admits every caller.
func NewOperatorAuthenticator(hash string) (*OperatorAuthenticator, error) {
	hash = strings.TrimSpace(hash)
	if hash != "" && len(strings.Split(hash, "$")) != 6 {
		return nil, ErrInvalidKeyHash
	}
	return &OperatorAuthenticator{hash: hash}, nil
}

// Enabled reports whether a key is required.
func (a *OperatorAuthenticator) Enabled() bool {
	return a != nil && a.hash != ""
}

// Authenticate returns ErrUnauthorized unless key matches the configured hash.
func (a *OperatorAuthenticator) Authenticate(key string) error {
	if !a.Enabled() {
		return nil
	}
	if strings.TrimSpace(key) == "" {
		return ErrUnauthorized
	}
	if err := VerifyKey(a.hash, key); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return ErrUnauthorized
		}
		return fmt.Errorf("verify operator key: %w", err)
	}
	return nil
}
