package circuit

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Digest fingerprints a circuit as the SHA3-256 of its OpenQASM export.
// Circuits that export to the same program share a digest.
func Digest(c *Circuit) (string, error) {
	program, err := ToQASM(c)
	if err != nil {
		return "", err
	}
	sum := sha3.Sum256([]byte(program))
	return hex.EncodeToString(sum[:]), nil
}
