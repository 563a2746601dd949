package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainStatement is the domain prefix for statement fingerprints.
// Version suffix enables future algorithm migration.
const DomainStatement = "metasql/statement/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a short, stable identifier for a rendered statement.
// Used to correlate log records without logging literal data.
func Fingerprint(sql string) string {
	return hashWithDomain(DomainStatement, []byte(sql))[:16]
}
