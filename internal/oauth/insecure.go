package oauth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// parseInsecureClaims decodes the JWT payload segment without any
// signature check. Only reachable through NewInsecureExchanger.
func parseInsecureClaims(raw string, v interface{}) error {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return errors.New("invalid token format")
	}
	payload := parts[1]
	// pad base64
	if m := len(payload) % 4; m != 0 {
		payload += strings.Repeat("=", 4-m)
	}
	data, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
