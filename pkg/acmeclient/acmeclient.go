// Package acmeclient wraps github.com/go-acme/lego/v4 behind the
// narrow ACMEClient surface pkg/acmeagent drives through its explicit
// order state machine (spec.md §4.5).
package acmeclient

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
)

// LetsEncryptProductionURL and LetsEncryptStagingURL are the two
// directory endpoints the controller can be pointed at via
// config.Cluster.ACME.DirectoryURL.
const (
	LetsEncryptProductionURL = "https://acme-v02.api.letsencrypt.org/directory"
	LetsEncryptStagingURL    = "https://acme-staging-v02.api.letsencrypt.org/directory"
)

// Account is the ACME account identity the controller persists as the
// "<ns>.acct" secret (spec.md §4.6 ensureAccount).
type Account struct {
	Email        string
	Key          crypto.PrivateKey
	Registration *registration.Resource
}

// GetEmail, GetRegistration, GetPrivateKey satisfy lego's registration.User.
func (a *Account) GetEmail() string                        { return a.Email }
func (a *Account) GetRegistration() *registration.Resource  { return a.Registration }
func (a *Account) GetPrivateKey() crypto.PrivateKey         { return a.Key }

// PublishFunc writes a challenge token's key authorization somewhere the
// ChallengeServer can read it back. pkg/acmeagent wires this to
// Orchestrator.WriteConfig("<ns>.challange.<token>", base64(keyAuth)),
// satisfying invariant I5: the write happens before lego triggers the
// authorization.
type PublishFunc func(ctx context.Context, token, keyAuth string) error

// ACMEClient is the narrow ACME surface pkg/acmeagent needs: register an
// account, then run one order (submit, publish+trigger challenges, wait,
// finalize with a caller-supplied CSR, fetch the resulting chain).
type ACMEClient interface {
	// Register creates a new ACME account for email, agreeing to the
	// CA's terms of service (spec.md §4.6: "accepting ToS, with
	// operator email").
	Register(ctx context.Context, email string) (*Account, error)

	// ObtainCertificate runs steps 2-7 of spec.md §4.5 for hosts: submit
	// the order, publish each HTTP-01 challenge via publish before
	// triggering it, wait for every authorization to reach valid (any
	// invalid aborts the whole order), finalize with csr (PEM-encoded
	// PKCS#10), and return the resulting certificate chain PEM and its
	// leaf's NotAfter.
	ObtainCertificate(ctx context.Context, acc *Account, hosts []string, csr []byte, publish PublishFunc) (certPEM []byte, notAfter time.Time, err error)
}

// Lego implements ACMEClient against a real Let's Encrypt (or
// Let's-Encrypt-compatible) ACME directory.
type Lego struct {
	directoryURL string
}

// New returns a Lego client pointed at directoryURL. An empty
// directoryURL defaults to the production Let's Encrypt directory.
func New(directoryURL string) *Lego {
	if directoryURL == "" {
		directoryURL = LetsEncryptProductionURL
	}
	return &Lego{directoryURL: directoryURL}
}

func (l *Lego) Register(ctx context.Context, email string) (*Account, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("acmeclient: generate account key: %w", err)
	}
	acc := &Account{Email: email, Key: key}

	cfg := lego.NewConfig(acc)
	cfg.CADirURL = l.directoryURL
	client, err := lego.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("acmeclient: new lego client: %w", err)
	}

	reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return nil, fmt.Errorf("acmeclient: register account: %w", err)
	}
	acc.Registration = reg
	return acc, nil
}

func (l *Lego) ObtainCertificate(ctx context.Context, acc *Account, hosts []string, csr []byte, publish PublishFunc) ([]byte, time.Time, error) {
	cfg := lego.NewConfig(acc)
	cfg.CADirURL = l.directoryURL
	client, err := lego.NewClient(cfg)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("acmeclient: new lego client: %w", err)
	}

	provider := &http01Provider{ctx: ctx, publish: publish}
	if err := client.Challenge.SetHTTP01Provider(provider); err != nil {
		return nil, time.Time{}, fmt.Errorf("acmeclient: set http-01 provider: %w", err)
	}

	parsedCSR, err := decodeCSR(csr)
	if err != nil {
		return nil, time.Time{}, err
	}
	res, err := client.Certificate.ObtainForCSR(certificate.ObtainForCSRRequest{
		CSR:    parsedCSR,
		Bundle: true,
	})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("acmeclient: obtain certificate for %v: %w", hosts, err)
	}

	notAfter, err := leafNotAfter(res.Certificate)
	if err != nil {
		return nil, time.Time{}, err
	}
	return res.Certificate, notAfter, nil
}

// http01Provider adapts lego's HTTP-01 challenge callbacks to a
// PublishFunc. Present is called once per authorization, before lego
// submits the challenge for validation — exactly the point spec.md I5
// needs the challenge config written at. CleanUp is intentionally a
// no-op: spec.md §9 documents that challenge configs are not cleaned up,
// even on success, to keep the state machine simple; the next
// ensureChallenge/ACME pass tolerates stale entries.
type http01Provider struct {
	ctx     context.Context
	publish PublishFunc
}

func (p *http01Provider) Present(domain, token, keyAuth string) error {
	return p.publish(p.ctx, token, keyAuth)
}

func (p *http01Provider) CleanUp(domain, token, keyAuth string) error {
	return nil
}
