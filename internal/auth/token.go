package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID = "argon2id"

	// TokenBytes is the entropy of a reset token before encoding
	TokenBytes = 32
	// DefaultCodeLength is the number of digits in a reset code
	DefaultCodeLength = 6
)

// HashParams are the argon2id cost parameters
type HashParams struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams is memory-hard with a single lane
var DefaultHashParams = HashParams{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// TokenCodec generates reset secrets and verifies them against stored hashes
type TokenCodec struct {
	params HashParams
	rand   io.Reader
}

// NewTokenCodec creates a codec with the given argon2id parameters
func NewTokenCodec(params HashParams) (*TokenCodec, error) {
	if params.Memory < 8*1024 {
		return nil, errors.New("hash memory must be >= 8192 KiB")
	}
	if params.Time < 1 || params.Parallelism < 1 {
		return nil, errors.New("hash time and parallelism must be >= 1")
	}
	if params.SaltLength < 16 || params.KeyLength < 16 {
		return nil, errors.New("hash salt and key length must be >= 16")
	}
	return &TokenCodec{params: params, rand: rand.Reader}, nil
}

// GenerateToken returns a URL-safe random bearer secret
func (c *TokenCodec) GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := io.ReadFull(c.rand, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateCode returns a random decimal string of the given length
func (c *TokenCodec) GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	var sb strings.Builder
	sb.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(c.rand, ten)
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// Hash derives a salted PHC-formatted argon2id hash of secret
func (c *TokenCodec) Hash(secret string) (string, error) {
	salt := make([]byte, c.params.SaltLength)
	if _, err := io.ReadFull(c.rand, salt); err != nil {
		return "", fmt.Errorf("failed to read salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, c.params.Time, c.params.Memory, c.params.Parallelism, c.params.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		c.params.Memory,
		c.params.Time,
		c.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether candidate matches encodedHash. Malformed hashes
// never match.
func (c *TokenCodec) Verify(encodedHash, candidate string) bool {
	p, err := parsePHC(encodedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(candidate), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// Stored hashes are bounded so a tampered row cannot force an oversized
// derivation.
const (
	maxMemory = 1024 * 1024
	maxTime   = 16
	maxKeyLen = 128
)

func parsePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, errors.New("unsupported argon2 version")
	}

	var p phc
	var seen int
	for _, pair := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.New("invalid parameter entry")
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < 1 || n > maxMemory {
				return nil, errors.New("invalid memory parameter")
			}
			p.memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < 1 || n > maxTime {
				return nil, errors.New("invalid time parameter")
			}
			p.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < 1 {
				return nil, errors.New("invalid parallelism parameter")
			}
			p.parallelism = uint8(n)
		default:
			return nil, errors.New("unsupported parameter")
		}
		seen++
	}
	if seen != 3 || p.memory == 0 || p.time == 0 || p.parallelism == 0 {
		return nil, errors.New("missing parameters")
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return nil, errors.New("invalid salt encoding")
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 || len(p.key) > maxKeyLen {
		return nil, errors.New("invalid hash encoding")
	}

	return &p, nil
}
