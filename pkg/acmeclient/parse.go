package acmeclient

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"
)

// decodeCSR parses a PEM-encoded PKCS#10 CSR, as produced by
// pkg/crypto.CreateCSR, into the form lego's ObtainForCSR expects.
func decodeCSR(csrPEM []byte) (*x509.CertificateRequest, error) {
	block, _ := pem.Decode(csrPEM)
	if block == nil {
		return nil, fmt.Errorf("acmeclient: CSR is not valid PEM")
	}
	csr, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("acmeclient: parse CSR: %w", err)
	}
	return csr, nil
}

// leafNotAfter parses the leaf certificate out of a PEM chain and
// returns its NotAfter, per spec.md §4.5 step 8.
func leafNotAfter(chainPEM []byte) (time.Time, error) {
	block, _ := pem.Decode(chainPEM)
	if block == nil {
		return time.Time{}, fmt.Errorf("acmeclient: certificate chain is not valid PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return time.Time{}, fmt.Errorf("acmeclient: parse leaf certificate: %w", err)
	}
	return cert.NotAfter, nil
}
