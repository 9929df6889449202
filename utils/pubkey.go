package utils

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
)

// IsValidPubkey tells whether s is a hex encoded compressed secp256k1 point.
func IsValidPubkey(s string) bool {
	buf, err := hex.DecodeString(s)
	if err != nil || len(buf) != btcec.PubKeyBytesLenCompressed {
		return false
	}
	_, err = btcec.ParsePubKey(buf)
	return err == nil
}
