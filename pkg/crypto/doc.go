/*
Package crypto is the Crypto interface spec.md §4.5/§4.6 describe:
private-key and CSR generation for certificate issuance, and DH
parameter generation for ensureDhparams. RSACrypto is the production
implementation; Fake is a fast stand-in for tests (small random keys,
fixed placeholder DH parameters).
*/
package crypto
