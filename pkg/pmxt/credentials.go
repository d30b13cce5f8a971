package pmxt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Credentials are forwarded to the server with every request that needs
// authentication. The server does the signing.
type Credentials struct {
	APIKey     string
	PrivateKey string // hex, with or without 0x

	// FunderAddress is the proxy wallet holding funds (Polymarket).
	FunderAddress string

	// SignatureType is an integer ("0", "1", "2") or a named scheme such as
	// "gnosis-safe". Empty means the server default.
	SignatureType string
}

// IsZero reports whether no credential is set.
func (c Credentials) IsZero() bool {
	return c.APIKey == "" && c.PrivateKey == "" && c.FunderAddress == "" && c.SignatureType == ""
}

// Validate checks the fields that can be checked locally. PrivateKey is
// passed through as given: its format depends on the exchange (hex for
// EVM venues, RSA PEM for Kalshi).
func (c Credentials) Validate() error {
	if c.FunderAddress != "" && !common.IsHexAddress(c.FunderAddress) {
		return fmt.Errorf("funder address %q is not a valid hex address", c.FunderAddress)
	}
	return nil
}

// SignerAddress derives the EVM address of a hex PrivateKey.
func (c Credentials) SignerAddress() (common.Address, error) {
	if c.PrivateKey == "" {
		return common.Address{}, fmt.Errorf("no private key configured")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.PrivateKey, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("parse private key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// wire builds the credentials object of the request body, or nil when
// nothing is set.
func (c Credentials) wire() map[string]any {
	if c.APIKey == "" && c.PrivateKey == "" {
		return nil
	}

	out := make(map[string]any, 4)
	if c.APIKey != "" {
		out["apiKey"] = c.APIKey
	}
	if c.PrivateKey != "" {
		out["privateKey"] = c.PrivateKey
	}
	if c.FunderAddress != "" {
		out["funderAddress"] = c.FunderAddress
	}
	if c.SignatureType != "" {
		if n, err := strconv.Atoi(c.SignatureType); err == nil {
			out["signatureType"] = n
		} else {
			out["signatureType"] = c.SignatureType
		}
	}
	return out
}
