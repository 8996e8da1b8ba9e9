package password

import (
	"strings"
	"testing"
)

// testParams keep argon2 cheap enough for CI while staying above the
// constructor minimums.
var testParams = Params{
	Memory:      16 * 1024,
	Time:        1,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

func newTestCredential(t *testing.T) *Credential {
	t.Helper()
	c, err := NewCredential(testParams, "unit-test-pepper")
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	return c
}

func TestHashVerifyRoundTrip(t *testing.T) {
	c := newTestCredential(t)

	hash, err := c.Hash("Tr0ub4dor&3")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("expected PHC argon2id encoding, got %q", hash)
	}
	if !c.Verify("Tr0ub4dor&3", hash) {
		t.Fatalf("correct password must verify")
	}
	if c.Verify("Tr0ub4dor&4", hash) {
		t.Fatalf("wrong password must not verify")
	}
}

func TestHashesAreSalted(t *testing.T) {
	c := newTestCredential(t)

	h1, err := c.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := c.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password must differ")
	}
	if !c.Verify("same-password", h1) || !c.Verify("same-password", h2) {
		t.Fatalf("both salted hashes must verify")
	}
}

func TestVerifyFailsClosedOnMalformedHash(t *testing.T) {
	c := newTestCredential(t)

	malformed := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=16384,t=1,p=2$short$short",
		"$argon2i$v=19$m=16384,t=1,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=18$m=16384,t=1,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=19$m=0,t=1,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	}
	for _, h := range malformed {
		if c.Verify("whatever", h) {
			t.Fatalf("malformed hash %q must fail closed", h)
		}
	}
}

func TestVerifyFailsAcrossPeppers(t *testing.T) {
	c1 := newTestCredential(t)
	c2, err := NewCredential(testParams, "a-different-pepper")
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}

	hash, err := c1.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if c2.Verify("correct horse battery staple", hash) {
		t.Fatalf("hash produced under one pepper must not verify under another")
	}
}

func TestNewCredentialValidation(t *testing.T) {
	if _, err := NewCredential(testParams, ""); err == nil {
		t.Fatalf("empty pepper must be rejected")
	}
	bad := testParams
	bad.SaltLength = 8
	if _, err := NewCredential(bad, "pepper"); err == nil {
		t.Fatalf("short salt must be rejected")
	}
	bad = testParams
	bad.Time = 0
	if _, err := NewCredential(bad, "pepper"); err == nil {
		t.Fatalf("zero time cost must be rejected")
	}
}
