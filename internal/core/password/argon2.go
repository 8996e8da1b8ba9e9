// Package password implements credential hashing and the sign-up strength
// heuristic. Hashes are argon2id in PHC string format; the raw password is
// keyed with a server-side pepper before hashing, so a leaked table is
// useless without the process secret.
package password

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

// Params are the argon2id cost settings. Production uses DefaultParams;
// tests may lower them to keep hashing cheap.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams match the deployed hashing cost: 512 MiB, two passes,
// 28 lanes.
var DefaultParams = Params{
	Memory:      512 * 1024,
	Time:        2,
	Parallelism: 28,
	SaltLength:  16,
	KeyLength:   32,
}

// Credential hashes and verifies passwords. Safe for concurrent use.
type Credential struct {
	params Params
	pepper []byte
}

// NewCredential returns a Credential with the given cost settings. The
// pepper must be non-empty; the same pepper must be used to verify what was
// hashed.
func NewCredential(params Params, pepper string) (*Credential, error) {
	if pepper == "" {
		return nil, errors.New("password: pepper must not be empty")
	}
	if params.Memory == 0 || params.Time == 0 || params.Parallelism == 0 {
		return nil, errors.New("password: cost parameters must be positive")
	}
	if params.SaltLength < 16 || params.KeyLength < 16 {
		return nil, errors.New("password: salt and key must be at least 16 bytes")
	}
	return &Credential{params: params, pepper: []byte(pepper)}, nil
}

// Hash derives an argon2id hash of the peppered password and encodes it as a
// PHC string.
func (c *Credential) Hash(password string) (string, error) {
	salt := make([]byte, c.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		c.pepperedKey(password),
		salt,
		c.params.Time,
		c.params.Memory,
		c.params.Parallelism,
		c.params.KeyLength,
	)

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

// Verify reports whether password matches the encoded hash. It fails closed:
// a malformed hash, unsupported parameters or a mismatched pepper all yield
// false, never an error or panic.
func (c *Credential) Verify(password, encodedHash string) bool {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey(
		c.pepperedKey(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.hash)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1
}

// pepperedKey keys the password with the pepper. x/crypto argon2 has no
// secret input, so the pepper is applied as an HMAC over the password.
func (c *Credential) pepperedKey(password string) []byte {
	mac := hmac.New(sha256.New, c.pepper)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

type parsedHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

func parsePHC(encoded string) (*parsedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") || version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	var p parsedHash
	for _, pair := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, errors.New("invalid parameter entry")
		}
		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return nil, errors.New("invalid memory parameter")
			}
			p.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return nil, errors.New("invalid time parameter")
			}
			p.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v == 0 {
				return nil, errors.New("invalid parallelism parameter")
			}
			p.parallelism = uint8(v)
		default:
			return nil, errors.New("unsupported parameter")
		}
	}
	if p.memory == 0 || p.time == 0 || p.parallelism == 0 {
		return nil, errors.New("missing parameters")
	}

	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) < 16 {
		return nil, errors.New("invalid salt")
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.hash) < 16 {
		return nil, errors.New("invalid hash")
	}

	return &p, nil
}
