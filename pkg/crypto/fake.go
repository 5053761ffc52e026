package crypto

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
)

// Fake implements Crypto without shelling out and with a small key size,
// for tests that need fast key/CSR/DH generation. Keys are still random;
// the DH parameters are a fixed placeholder PEM block.
type Fake struct {
	KeyBits int
	DHBits  int
}

// NewFake returns a Fake with short key sizes suitable only for tests.
func NewFake() *Fake {
	return &Fake{KeyBits: 512, DHBits: 64}
}

func (f *Fake) GeneratePrivateKey() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, f.KeyBits)
}

func (f *Fake) CreateCSR(key *rsa.PrivateKey, hosts []string) ([]byte, error) {
	return (&RSACrypto{}).CreateCSR(key, hosts)
}

func (f *Fake) GenerateDHParams(_ context.Context, _ int) ([]byte, error) {
	return []byte("-----BEGIN DH PARAMETERS-----\nfake\n-----END DH PARAMETERS-----\n"), nil
}
