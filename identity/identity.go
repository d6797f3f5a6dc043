// Package identity derives pseudo-anonymous voter and network-origin tags
// from request metadata. Raw header values and addresses are never stored,
// only their digests.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// UnknownAddr is used when no client address can be determined.
const UnknownAddr = "0.0.0.0"

// VoterTag identifies a device/browser combination. Distinct devices
// sharing identical headers collide; that is an accepted trade-off.
func VoterTag(userAgent, locale string) string {
	return digest(userAgent + ":" + locale)
}

// OriginTag identifies a network origin without retaining the address.
func OriginTag(addr string) string {
	return digest(addr)
}

// ClientAddr resolves the client address from proxy headers, preferring
// the first x-forwarded-for entry, then x-real-ip, then the peer address.
func ClientAddr(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first := forwardedFor
		if i := strings.Index(first, ","); i != -1 {
			first = first[:i]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP != "" {
		return realIP
	}
	if remoteAddr != "" {
		return remoteAddr
	}
	return UnknownAddr
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
