package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// VisitorHash derives the anonymous visitor identifier for a page view.
// The preimage mixes the server secret with coarse location and the current
// UTC date, so the identifier is stable within a day, rotates at midnight
// UTC, and cannot be reversed to an IP address. No raw visitor data is ever
// stored. The same inputs always produce the same hash, restarts included.
func VisitorHash(secret, site, country, region string, now time.Time) string {
	day := now.UTC().Format("2006-01-02")
	combined := secret + "|" + site + "|" + country + "|" + region + "|" + day

	hashed := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hashed[:8])
}
