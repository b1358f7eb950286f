// Package security は外部との入出力を安全に行うための機能を提供する。
package security

import (
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// EndpointGuard は検索エンドポイントへの接続を安全な宛先に限定する。
type EndpointGuard interface {
	// ValidateURL はURLが接続先として許可されるかを静的に検証する。
	ValidateURL(rawURL string) error
	// NewSafeClient はDNS解決後の宛先もブロック対象と照合するHTTPクライアントを生成する。
	NewSafeClient(timeout time.Duration) *http.Client
}

var allowedSchemes = []string{"http", "https"}

// blockedPrefixes はプライベート・ループバック・リンクローカル等のアドレス範囲。
// リンクローカルにはクラウドのメタデータIP (169.254.169.254) が含まれる。
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("fc00::/7"),
}

type endpointGuard struct {
	allowedHosts []string
}

// NewEndpointGuard はEndpointGuardの新しいインスタンスを生成する。
// allowedHostsを指定した場合、そのホスト以外への接続を拒否する。
func NewEndpointGuard(allowedHosts ...string) *endpointGuard {
	hosts := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return &endpointGuard{allowedHosts: hosts}
}

// NewSafeClient はsafeurlでラップしたHTTPクライアントを生成する。
// 接続先ポートは80と443に限定される。
func (g *endpointGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はスキーム・ホスト・IPアドレスを検証する。
// DNS解決は行わないため、名前解決後の宛先はNewSafeClient側で検証される。
func (g *endpointGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !slices.Contains(allowedSchemes, scheme) {
		return fmt.Errorf("disallowed scheme: %q (allowed: %v)", scheme, allowedSchemes)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		for _, prefix := range blockedPrefixes {
			if prefix.Contains(addr) {
				return fmt.Errorf("blocked IP address: %s", addr)
			}
		}
	} else if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}

	if len(g.allowedHosts) > 0 && !slices.Contains(g.allowedHosts, host) {
		return fmt.Errorf("host not allowed: %s", host)
	}
	return nil
}
