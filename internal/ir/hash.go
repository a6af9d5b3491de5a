package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainPlan is the domain prefix for plan fingerprints.
// The version suffix allows future algorithm migration.
const DomainPlan = "plansql/plan/v" + IRVersion

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the structural fingerprint of e paired with a
// projector reference. Trees that are Equal and share a projector always
// produce the same fingerprint; placeholder values never contribute.
func Fingerprint(e Expr, projector string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"expr":      Canonical(e),
		"projector": projector,
	})
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(e Expr, projector string) string {
	fp, err := Fingerprint(e, projector)
	if err != nil {
		panic(err)
	}
	return fp
}
