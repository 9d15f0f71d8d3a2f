package config

import (
	"fmt"
	"net"
	"strings"
)

// ProxyConfig lists the reverse proxies whose forwarding headers are believed.
type ProxyConfig interface {
	GetTrustedProxies() TrustedProxies
}

var _ ProxyConfig = (*settings)(nil)

type TrustedProxies []*net.IPNet

// Contains reports whether ip sits inside one of the trusted networks.
func (t TrustedProxies) Contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range t {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ParseTrustedProxies reads a comma separated list of CIDRs or bare IPs.
func ParseTrustedProxies(list string) (TrustedProxies, error) {
	var proxies TrustedProxies
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			proxies = append(proxies, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		proxies = append(proxies, n)
	}
	return proxies, nil
}

// GetTrustedProxies returns the validated list; Load rejects malformed entries.
func (s *settings) GetTrustedProxies() TrustedProxies {
	proxies, _ := ParseTrustedProxies(s.TrustedProxies)
	return proxies
}
