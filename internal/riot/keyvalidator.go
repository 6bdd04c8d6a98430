package riot

import (
	"context"
	"errors"
)

// Lightweight platform-scoped endpoint used only to probe the key.
const statusEndpoint = "/lol/status/v4/platform-data"

// KeyValidator probes the API key against a platform host before any quota
// is spent on the real run. The probe goes through the shared transport
// client, so it consumes a limiter permit like every other outbound call.
type KeyValidator struct {
	client *Client
	host   string
}

// NewKeyValidator creates a KeyValidator probing the given platform host.
func NewKeyValidator(client *Client, platformHost string) *KeyValidator {
	return &KeyValidator{client: client, host: platformHost}
}

// ValidateKey makes a test request with the client's key. Returns:
//   - (true, nil) if the key is valid
//   - (false, nil) if the key is invalid (401/403)
//   - (false, error) if the probe failed (key validity unknown)
func (v *KeyValidator) ValidateKey(ctx context.Context) (bool, error) {
	err := v.client.Get(ctx, v.host, statusEndpoint, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUnauthorized):
		return false, nil
	default:
		return false, err
	}
}
