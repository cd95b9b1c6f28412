package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DomainPolicyConfig restricts which hosts search results may come from.
// An empty Allow list admits every host not listed in Block.
type DomainPolicyConfig struct {
	Allow []string `mapstructure:"allow"`
	Block []string `mapstructure:"block"`
}

// Normalize lowercases hosts, strips schemes and "www." and removes duplicates.
func (c DomainPolicyConfig) Normalize() DomainPolicyConfig {
	return DomainPolicyConfig{
		Allow: sanitizeDomainList(c.Allow),
		Block: sanitizeDomainList(c.Block),
	}
}

// Validate rejects hosts present in both lists.
func (c DomainPolicyConfig) Validate() error {
	norm := c.Normalize()
	allow := make(map[string]struct{}, len(norm.Allow))
	for _, host := range norm.Allow {
		allow[host] = struct{}{}
	}
	for _, host := range norm.Block {
		if _, ok := allow[host]; ok {
			return fmt.Errorf("search.domains conflict: host %q present in both allow and block lists", host)
		}
	}
	return nil
}

// Permits reports whether a result URL passes the policy. Subdomains match
// their parent entry. URLs without a host are always permitted.
func (c DomainPolicyConfig) Permits(rawURL string) bool {
	host := normalizeHost(rawURL)
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return true
	}
	for _, blocked := range c.Block {
		if matchesDomain(host, blocked) {
			return false
		}
	}
	if len(c.Allow) == 0 {
		return true
	}
	for _, allowed := range c.Allow {
		if matchesDomain(host, allowed) {
			return true
		}
	}
	return false
}

// Empty reports whether the policy admits everything.
func (c DomainPolicyConfig) Empty() bool { return len(c.Allow) == 0 && len(c.Block) == 0 }

func matchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func sanitizeDomainList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		host := normalizeHost(raw)
		if host == "" {
			continue
		}
		seen[host] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for host := range seen {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

func normalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		u, err := url.Parse(value)
		if err != nil || u.Host == "" {
			return ""
		}
		value = u.Hostname()
	}
	return strings.TrimPrefix(value, "www.")
}
