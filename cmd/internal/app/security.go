package app

import (
	"errors"
	"fmt"

	"github.com/MH469Arya/ProfRankSystem/cmd/security/adminkey"
	"github.com/MH469Arya/ProfRankSystem/cmd/security/token"
)

// TokenHasher builds the session token hasher and enforces the HMAC policy.
// Under PROFRANK_REQUIRE_TOKEN_HMAC a missing or short key is fatal at startup.
func TokenHasher(cfg Config) (token.Hasher, error) {
	h, err := token.HasherFromEnv(cfg.RequireTokenHMAC)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return token.Hasher{}, errors.New("security policy: PROFRANK_REQUIRE_TOKEN_HMAC=true but PROFRANK_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return token.Hasher{}, fmt.Errorf("security policy: PROFRANK_REQUIRE_TOKEN_HMAC=true but PROFRANK_TOKEN_HMAC_KEY is too short (min %d bytes)", token.MinHMACKeyBytes)
		default:
			return token.Hasher{}, err
		}
	}
	if cfg.RequireTokenHMAC && !h.HMAC() {
		return token.Hasher{}, errors.New("security policy: PROFRANK_REQUIRE_TOKEN_HMAC=true but token hasher is not in HMAC mode")
	}
	return h, nil
}

// AdminVerifier returns nil (admin routes disabled) when no hash is configured.
func AdminVerifier(cfg Config) (*adminkey.Verifier, error) {
	if cfg.AdminKeyHash == "" {
		return nil, nil
	}
	kcfg, err := adminkey.FromEnv()
	if err != nil {
		return nil, err
	}
	v, err := adminkey.NewVerifier(kcfg, cfg.AdminKeyHash)
	if err != nil {
		return nil, fmt.Errorf("PROFRANK_ADMIN_KEY_HASH: %w", err)
	}
	return v, nil
}
