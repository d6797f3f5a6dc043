package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVoterTag(t *testing.T) {
	tag := VoterTag("Mozilla/5.0", "en-US")

	require.Len(t, tag, 64, "tag should be a hex sha256 digest")
	require.Equal(t, tag, VoterTag("Mozilla/5.0", "en-US"), "same headers must produce the same tag")
	require.NotEqual(t, tag, VoterTag("Mozilla/5.0", "fr-FR"), "locale must influence the tag")
	require.NotEqual(t, tag, VoterTag("curl/7.79", "en-US"), "user agent must influence the tag")

	// the separator keeps ("ab","c") and ("a","bc") apart
	require.NotEqual(t, VoterTag("ab", "c"), VoterTag("a", "bc"))
}

func TestVoterTagEmptyInputs(t *testing.T) {
	require.Len(t, VoterTag("", ""), 64)
	require.Equal(t, VoterTag("", ""), VoterTag("", ""))
}

func TestOriginTag(t *testing.T) {
	tag := OriginTag("203.0.113.7")

	require.Len(t, tag, 64)
	require.Equal(t, tag, OriginTag("203.0.113.7"))
	require.NotEqual(t, tag, OriginTag("203.0.113.8"))
	require.NotContains(t, tag, "203.0.113.7", "tag must not leak the address")
}

func TestClientAddr(t *testing.T) {
	testCases := []struct {
		name         string
		forwardedFor string
		realIP       string
		remoteAddr   string
		expected     string
	}{
		{
			name:         "forwarded-for wins",
			forwardedFor: "198.51.100.1, 203.0.113.9",
			realIP:       "203.0.113.2",
			remoteAddr:   "10.0.0.1",
			expected:     "198.51.100.1",
		},
		{
			name:         "forwarded-for entry is trimmed",
			forwardedFor: "  198.51.100.1 , 203.0.113.9",
			expected:     "198.51.100.1",
		},
		{
			name:       "real-ip when no forwarded-for",
			realIP:     "203.0.113.2",
			remoteAddr: "10.0.0.1",
			expected:   "203.0.113.2",
		},
		{
			name:       "peer address as last resort",
			remoteAddr: "10.0.0.1",
			expected:   "10.0.0.1",
		},
		{
			name:     "sentinel when nothing is known",
			expected: UnknownAddr,
		},
		{
			name:         "blank forwarded-for falls through",
			forwardedFor: "  ",
			realIP:       "203.0.113.2",
			expected:     "203.0.113.2",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, ClientAddr(tc.forwardedFor, tc.realIP, tc.remoteAddr))
		})
	}
}
