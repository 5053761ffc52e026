package crypto

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// GenerateDHParamsOpenSSL shells out to the openssl binary to generate
// PEM-encoded DH parameters. No third-party Go library in the examined
// ecosystem implements DH parameter generation (DESIGN.md records the
// search); openssl dhparam is the standard tool for this and is what
// the original Python implementation also invokes as a subprocess.
func GenerateDHParamsOpenSSL(ctx context.Context, bits int) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "openssl", "dhparam", strconv.Itoa(bits))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("crypto: openssl dhparam %d: %w (stderr: %s)", bits, err, stderr.String())
	}
	return stdout.Bytes(), nil
}
