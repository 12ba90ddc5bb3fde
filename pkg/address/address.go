// Package address validates and converts addresses for the two chains: SS58
// encoded consensus accounts and 0x hex Auto-EVM accounts.
package address

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/blake2b"
)

// ConsensusPrefix is the SS58 network prefix of the Autonomys consensus chain
const ConsensusPrefix = 6094

// ss58Preamble is hashed together with the payload to derive the checksum
var ss58Preamble = []byte("SS58PRE")

// IsDomainAddress reports whether s is a valid 0x Auto-EVM address
func IsDomainAddress(s string) bool {
	return common.IsHexAddress(s)
}

// IsConsensusAddress reports whether s decodes as an SS58 address with the
// consensus network prefix and a valid checksum.
func IsConsensusAddress(s string) bool {
	_, err := DecodeConsensus(s)
	return err == nil
}

// EncodeConsensus encodes a 32-byte public key as an SS58 address with the
// consensus network prefix.
func EncodeConsensus(pub []byte) (string, error) {
	if len(pub) != 32 {
		return "", fmt.Errorf("public key must be 32 bytes, got %d", len(pub))
	}

	// network prefixes above 63 use the two-byte SS58 identifier form
	ident := uint16(ConsensusPrefix) & 0x3FFF
	prefix := []byte{
		byte(ident&0xFC)>>2 | 0x40,
		byte(ident>>8) | byte(ident&0x03)<<6,
	}

	payload := append(prefix, pub...)
	sum := checksum(payload)
	return base58.Encode(append(payload, sum[:2]...)), nil
}

// DecodeConsensus decodes an SS58 consensus address and returns the 32-byte
// public key, verifying both the network prefix and the checksum.
func DecodeConsensus(s string) ([]byte, error) {
	raw := base58.Decode(s)
	// two prefix bytes, 32-byte key, two checksum bytes
	if len(raw) != 36 {
		return nil, fmt.Errorf("invalid address length %d", len(raw))
	}
	if raw[0]&0xC0 != 0x40 {
		return nil, fmt.Errorf("unexpected SS58 prefix byte 0x%02x", raw[0])
	}

	lower := uint16(raw[0]<<2) | uint16(raw[1]>>6)
	upper := uint16(raw[1] & 0x3F)
	ident := lower | upper<<8
	if ident != ConsensusPrefix {
		return nil, fmt.Errorf("address has network prefix %d, want %d", ident, ConsensusPrefix)
	}

	payload := raw[:34]
	sum := checksum(payload)
	if !bytes.Equal(sum[:2], raw[34:]) {
		return nil, fmt.Errorf("checksum mismatch")
	}

	pub := make([]byte, 32)
	copy(pub, raw[2:34])
	return pub, nil
}

func checksum(payload []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Preamble)
	h.Write(payload)
	return h.Sum(nil)
}
