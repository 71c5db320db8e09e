// File: internal/descriptor/fingerprint.go
package descriptor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Fingerprint returns a stable digest of the resolved descriptor. Map keys are
// emitted in sorted order, so the same declaration always yields the same value.
func Fingerprint(d *Descriptor) (string, error) {
	canonical, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to encode descriptor: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
