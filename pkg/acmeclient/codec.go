package acmeclient

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"fmt"

	"github.com/go-acme/lego/v4/registration"
)

// accountWire is Account's persisted shape — the "<ns>.acct" secret body
// ensureAccount writes and the observe worker reads back (spec.md §4.6).
// The private key is PKCS#8 DER since it must round-trip either the
// Lego adapter's ecdsa key or the Fake adapter's rsa key.
type accountWire struct {
	Email        string                 `json:"email"`
	KeyDER       []byte                 `json:"key_der"`
	Registration *registration.Resource `json:"registration,omitempty"`
}

// MarshalAccount encodes acc as the bytes ensureAccount writes to the
// "<ns>.acct" secret.
func MarshalAccount(acc *Account) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(acc.Key)
	if err != nil {
		return nil, fmt.Errorf("acmeclient: marshal account key: %w", err)
	}
	data, err := json.Marshal(accountWire{Email: acc.Email, KeyDER: der, Registration: acc.Registration})
	if err != nil {
		return nil, fmt.Errorf("acmeclient: marshal account: %w", err)
	}
	return data, nil
}

// UnmarshalAccount decodes an Account from the "<ns>.acct" secret body,
// the observe worker's entry point into a previously bootstrapped ACME
// identity.
func UnmarshalAccount(data []byte) (*Account, error) {
	var wire accountWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("acmeclient: unmarshal account: %w", err)
	}
	key, err := x509.ParsePKCS8PrivateKey(wire.KeyDER)
	if err != nil {
		return nil, fmt.Errorf("acmeclient: parse account key: %w", err)
	}
	switch key.(type) {
	case *ecdsa.PrivateKey, *rsa.PrivateKey:
	default:
		return nil, fmt.Errorf("acmeclient: unsupported account key type %T", key)
	}
	return &Account{Email: wire.Email, Key: key, Registration: wire.Registration}, nil
}
