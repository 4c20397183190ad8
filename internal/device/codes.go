package device

import (
	"crypto/rand"
	"encoding/hex"
)

// userCodeAlphabet avoids visually ambiguous characters (0/O, 1/I/L)
// so the code survives human transcription from one screen to another.
const userCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewDeviceCode returns a 256-bit random identifier, hex encoded. It is
// never shown to the human and must be unguessable.
func NewDeviceCode() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewUserCode returns a short human-typable code in the form XXXX-XXXX.
func NewUserCode() (string, error) {
	const n = 8
	out := make([]byte, 0, n+1)
	// rejection sampling keeps the character distribution uniform
	limit := 256 - 256%len(userCodeAlphabet)
	buf := make([]byte, 1)
	for len(out) < n+1 {
		if len(out) == 4 {
			out = append(out, '-')
			continue
		}
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		if int(buf[0]) >= limit {
			continue
		}
		out = append(out, userCodeAlphabet[int(buf[0])%len(userCodeAlphabet)])
	}
	return string(out), nil
}
