package acmeclient

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"
)

// Fake implements ACMEClient entirely in-process, for pkg/acmeagent and
// pkg/reconciler tests. It mints a self-signed certificate instead of
// talking to a real ACME directory, but still calls publish for every
// host exactly once before "issuing" — preserving invariant I5 so tests
// can assert on publish order.
type Fake struct {
	// FailHosts, if set, names hosts for which ObtainCertificate returns
	// an error after publishing (simulating an authorization that goes
	// invalid).
	FailHosts map[string]bool
	// Validity is how long the minted certificate is valid for.
	Validity time.Duration
}

// NewFake returns a Fake with a 90-day default validity (Let's Encrypt's
// real-world default).
func NewFake() *Fake {
	return &Fake{Validity: 90 * 24 * time.Hour}
}

func (f *Fake) Register(_ context.Context, email string) (*Account, error) {
	key, err := rsa.GenerateKey(rand.Reader, 512)
	if err != nil {
		return nil, err
	}
	return &Account{Email: email, Key: key}, nil
}

func (f *Fake) ObtainCertificate(ctx context.Context, acc *Account, hosts []string, csr []byte, publish PublishFunc) ([]byte, time.Time, error) {
	for _, h := range hosts {
		token := "fake-token-" + h
		if err := publish(ctx, token, token+".thumbprint"); err != nil {
			return nil, time.Time{}, fmt.Errorf("fake acme client: publish for %s: %w", h, err)
		}
		if f.FailHosts[h] {
			return nil, time.Time{}, fmt.Errorf("fake acme client: authorization for %s went invalid", h)
		}
	}

	parsedCSR, err := decodeCSR(csr)
	if err != nil {
		return nil, time.Time{}, err
	}

	notAfter := time.Now().Add(f.Validity)
	certDER, err := selfSign(parsedCSR, notAfter)
	if err != nil {
		return nil, time.Time{}, err
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	return certPEM, notAfter, nil
}

func selfSign(csr *x509.CertificateRequest, notAfter time.Time) ([]byte, error) {
	key, err := rsa.GenerateKey(rand.Reader, 512)
	if err != nil {
		return nil, err
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return nil, err
	}
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: csr.Subject.CommonName},
		DNSNames:     csr.DNSNames,
		NotBefore:    time.Now(),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	return x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
}

// AccountThumbprint is a deterministic stand-in for a real JWK
// thumbprint, used only by tests that need a stable value to assert
// against.
func AccountThumbprint(acc *Account) string {
	return hex.EncodeToString([]byte(acc.Email))
}
