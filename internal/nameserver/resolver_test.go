package nameserver

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/hostdb/internal/config"
	"github.com/jbweber/homelab/hostdb/internal/domain"
	"github.com/jbweber/homelab/hostdb/internal/logging"
)

// startServer runs a UDP DNS server on a free loopback port answering
// NS queries from zone. Unknown names get NXDOMAIN.
func startServer(t *testing.T, zone map[string][]string) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetReply(r)
		name := r.Question[0].Name
		servers, ok := zone[name]
		if !ok {
			resp.SetRcode(r, dns.RcodeNameError)
		}
		for _, ns := range servers {
			resp.Answer = append(resp.Answer, &dns.NS{
				Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeNS, Class: dns.ClassINET, Ttl: 300},
				Ns:  ns,
			})
		}
		_ = w.WriteMsg(resp)
	})

	started := make(chan struct{})
	server := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = server.ActivateAndServe() }()
	t.Cleanup(func() { _ = server.Shutdown() })

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("DNS server did not start")
	}
	return pc.LocalAddr().String()
}

func newResolver(cfg config.DNSConfig) *Resolver {
	if cfg.Timeout == 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	return NewResolver(cfg, logging.NewDiscard())
}

func TestNameservers_Remote(t *testing.T) {
	addr := startServer(t, map[string][]string{
		"mydomain.net.": {"ns2.mydomain.net.", "ns1.mydomain.net.", "ns1.mydomain.net."},
	})
	r := newResolver(config.DNSConfig{Nameservers: []string{addr}})

	names, err := r.Nameservers(context.Background(), domain.Domain{Name: "mydomain.net"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ns1.mydomain.net", "ns2.mydomain.net"}, names)
}

func TestNameservers_NoServers(t *testing.T) {
	r := newResolver(config.DNSConfig{})

	names, err := r.Nameservers(context.Background(), domain.Domain{Name: "mydomain.net"})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNameservers_UnknownDomain(t *testing.T) {
	addr := startServer(t, map[string][]string{})
	r := newResolver(config.DNSConfig{Nameservers: []string{addr}})

	names, err := r.Nameservers(context.Background(), domain.Domain{Name: "nowhere.test"})
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestNameservers_EmptyAnswer(t *testing.T) {
	addr := startServer(t, map[string][]string{"bare.test.": nil})
	r := newResolver(config.DNSConfig{Nameservers: []string{addr}})

	names, err := r.Nameservers(context.Background(), domain.Domain{Name: "bare.test"})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNameservers_FallsBackToNextServer(t *testing.T) {
	dead, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	deadAddr := dead.LocalAddr().String()
	require.NoError(t, dead.Close())

	addr := startServer(t, map[string][]string{"mydomain.net.": {"ns1.mydomain.net."}})
	r := newResolver(config.DNSConfig{Nameservers: []string{deadAddr, addr}})

	names, err := r.Nameservers(context.Background(), domain.Domain{Name: "mydomain.net"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ns1.mydomain.net"}, names)
}

func TestNameservers_AllServersFail(t *testing.T) {
	dead, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	deadAddr := dead.LocalAddr().String()
	require.NoError(t, dead.Close())

	r := newResolver(config.DNSConfig{Nameservers: []string{deadAddr}, Timeout: 200 * time.Millisecond})

	_, err = r.Nameservers(context.Background(), domain.Domain{Name: "mydomain.net"})
	assert.Error(t, err)
}

func TestServers_QueryLocal(t *testing.T) {
	resolv := filepath.Join(t.TempDir(), "resolv.conf")
	require.NoError(t, os.WriteFile(resolv, []byte("nameserver 192.0.2.53\nnameserver 192.0.2.54\n"), 0o600))

	r := newResolver(config.DNSConfig{
		QueryLocalNameservers: true,
		ResolvConf:            resolv,
		Nameservers:           []string{"198.51.100.1"},
	})
	servers, err := r.Servers()
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.53:53", "192.0.2.54:53"}, servers)
}

func TestServers_MissingResolvConf(t *testing.T) {
	r := newResolver(config.DNSConfig{
		QueryLocalNameservers: true,
		ResolvConf:            filepath.Join(t.TempDir(), "missing.conf"),
	})

	servers, err := r.Servers()
	require.NoError(t, err)
	assert.Empty(t, servers)

	names, err := r.Nameservers(context.Background(), domain.Domain{Name: "mydomain.net"})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestServers_AddsDefaultPort(t *testing.T) {
	r := newResolver(config.DNSConfig{Nameservers: []string{"192.0.2.1", "192.0.2.2:5353", "2001:db8::1"}})

	servers, err := r.Servers()
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.1:53", "192.0.2.2:5353", "[2001:db8::1]:53"}, servers)
}
