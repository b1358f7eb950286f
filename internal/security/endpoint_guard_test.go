package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewSafeClient(t *testing.T) {
	guard := NewEndpointGuard()
	timeout := 5 * time.Second
	client := guard.NewSafeClient(timeout)

	if client == nil {
		t.Fatal("NewSafeClient は nil を返してはならない")
	}
	if client.Timeout != timeout {
		t.Errorf("Timeout = %v, want %v", client.Timeout, timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Error("safeurlのTransportが設定されるべき")
	}
}

// httptestサーバーは127.0.0.1で起動されるため、safeurlがブロックする。
func TestNewSafeClient_BlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewEndpointGuard().NewSafeClient(5 * time.Second)
	if _, err := client.Get(ts.URL); err == nil {
		t.Fatal("ループバックへのリクエストはブロックされるべき")
	}
}

func TestValidateURL(t *testing.T) {
	guard := NewEndpointGuard()

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://search.yahoo.co.jp/realtime/search", false},
		{"http://example.com/search", false},
		{"", true},
		{"not-a-url", true},
		{"ftp://example.com/search", true},
		{"file:///etc/passwd", true},
		{"http://10.0.0.1/search", true},
		{"http://172.16.0.1/search", true},
		{"http://192.168.1.100/search", true},
		{"http://127.0.0.1/search", true},
		{"http://localhost/search", true},
		{"http://api.localhost/search", true},
		{"http://169.254.169.254/latest/meta-data/", true},
		{"http://[::1]/search", true},
		{"http://[fe80::1]/search", true},
		{"http://[::ffff:127.0.0.1]/search", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := guard.ValidateURL(tt.url)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateURL(%q) はエラーになるべき", tt.url)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateURL(%q) でエラー: %v", tt.url, err)
			}
		})
	}
}

func TestValidateURL_AllowedHosts(t *testing.T) {
	guard := NewEndpointGuard("Search.Yahoo.co.jp", " ")

	if err := guard.ValidateURL("https://search.yahoo.co.jp/realtime/search"); err != nil {
		t.Errorf("許可ホストはエラーにしてはならない: %v", err)
	}
	if err := guard.ValidateURL("https://example.com/realtime/search"); err == nil {
		t.Error("許可ホスト以外はエラーになるべき")
	}
}
