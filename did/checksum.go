package did

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/crypto/sha3"
)

// CanonicalJSON encodes v compactly with object keys sorted and without
// HTML escaping.
func CanonicalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Checksum is the legacy (V3) seed checksum: sha3-256 over the sorted-key
// JSON of seed with every space removed.
func Checksum(seed map[string]any) (string, error) {
	text, err := CanonicalJSON(seed)
	if err != nil {
		return "", fmt.Errorf("error encoding checksum seed: %w", err)
	}

	text = strings.ReplaceAll(text, " ", "")

	sum := sha3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]), nil
}

// CreateChecksum is the V4 checksum: sha256 over the raw text.
func CreateChecksum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func FromSeed(seed map[string]any) (string, error) {
	sum, err := Checksum(seed)
	if err != nil {
		return "", err
	}

	return Prefix + strings.TrimPrefix(sum, "0x"), nil
}

// ForNFT derives a V4 did from the data nft address and the chain it lives on.
func ForNFT(nftAddress string, chainID int64) (string, error) {
	addr, err := ChecksumAddress(nftAddress)
	if err != nil {
		return "", err
	}

	return Prefix + CreateChecksum(addr+strconv.FormatInt(chainID, 10)), nil
}

// ChecksumAddress returns the EIP-55 mixed-case form of a 20 byte hex address.
func ChecksumAddress(address string) (string, error) {
	a := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X"))
	if len(a) != 40 {
		return "", fmt.Errorf("%w: address %q must be 20 bytes", ErrInvalidDID, address)
	}

	if _, err := hex.DecodeString(a); err != nil {
		return "", fmt.Errorf("%w: address %q is not hex", ErrInvalidDID, address)
	}

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(a))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(a)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 32
		}
	}

	return "0x" + string(out), nil
}
