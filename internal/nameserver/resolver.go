package nameserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"slices"
	"strings"

	"github.com/miekg/dns"

	"github.com/jbweber/homelab/hostdb/internal/config"
	"github.com/jbweber/homelab/hostdb/internal/domain"
	"github.com/jbweber/homelab/hostdb/internal/logging"
)

// Resolver looks up the NS records of domains
type Resolver struct {
	cfg    config.DNSConfig
	client *dns.Client
	logger *logging.Logger
}

// NewResolver creates a resolver. With QueryLocalNameservers set the
// servers of the local resolver configuration are asked, otherwise the
// configured remote servers.
func NewResolver(cfg config.DNSConfig, logger *logging.Logger) *Resolver {
	return &Resolver{
		cfg: cfg,
		client: &dns.Client{
			Net:     "udp",
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Servers returns the host:port of every server that will be asked
func (r *Resolver) Servers() ([]string, error) {
	if !r.cfg.QueryLocalNameservers {
		return normalize(r.cfg.Nameservers, "53"), nil
	}

	cc, err := dns.ClientConfigFromFile(r.cfg.ResolvConf)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("Resolver configuration not found", "path", r.cfg.ResolvConf)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", r.cfg.ResolvConf, err)
	}
	return normalize(cc.Servers, cc.Port), nil
}

// Nameservers returns the sorted NS host names of d without trailing dots.
// A missing domain or an empty answer is an empty result. An error is
// returned only when no server could be reached.
func (r *Resolver) Nameservers(ctx context.Context, d domain.Domain) ([]string, error) {
	servers, err := r.Servers()
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 || d.Name == "" {
		return []string{}, nil
	}

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(d.Name), dns.TypeNS)
	req.RecursionDesired = true

	var lastErr error
	for _, server := range servers {
		resp, rtt, err := r.client.ExchangeContext(ctx, req, server)
		if err != nil {
			r.logger.Warn("Nameserver query failed",
				"domain", d.Name,
				"server", server,
				"error", err,
			)
			lastErr = err
			continue
		}

		if resp.Rcode == dns.RcodeServerFailure || resp.Rcode == dns.RcodeRefused {
			lastErr = fmt.Errorf("server %s returned %s", server, dns.RcodeToString[resp.Rcode])
			continue
		}

		r.logger.Debug("Nameserver query succeeded",
			"domain", d.Name,
			"server", server,
			"rtt", rtt,
			"answers", len(resp.Answer),
		)

		if resp.Rcode == dns.RcodeNameError {
			return []string{}, nil
		}
		return nsNames(resp), nil
	}

	return nil, fmt.Errorf("all nameservers failed: %w", lastErr)
}

func nsNames(resp *dns.Msg) []string {
	names := []string{}
	for _, rr := range resp.Answer {
		if ns, ok := rr.(*dns.NS); ok {
			names = append(names, strings.TrimSuffix(ns.Ns, "."))
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// normalize adds port to addresses that do not carry one
func normalize(servers []string, port string) []string {
	out := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, port)
		}
		out = append(out, s)
	}
	return out
}
