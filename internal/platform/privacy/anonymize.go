// Package privacy reduces request identifiers to coarse values before
// they reach logs.
package privacy

import "net"

// Masks keep the IPv4 /24 and the IPv6 /48 prefix. Up to 256 hosts share
// one masked IPv4 form, so the logged value cannot name a single machine.
var (
	v4Mask = net.CIDRMask(24, 32)
	v6Mask = net.CIDRMask(48, 128)
)

// AnonymizeIP coarsens an address to its shared network prefix, rendered
// in canonical notation: "192.168.1.0", "2001:db8:85a3::". Empty input
// reports "unknown", unparseable input "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.Mask(v4Mask).String()
	}
	return parsed.Mask(v6Mask).String()
}
