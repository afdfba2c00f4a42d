// Package netx holds a best-effort connectivity probe. The probe only tunes
// retry scheduling; a sync attempt is never gated on it, the request itself
// is the authoritative check.
package netx

import (
	"context"
	"net"
	"time"
)

// DefaultProbeTimeout bounds one probe dial.
const DefaultProbeTimeout = 3 * time.Second

// Probe checks TCP reachability of a single address.
type Probe struct {
	addr    string
	timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewProbe returns a probe against addr (host:port). An empty addr yields a
// probe that always reports reachable.
func NewProbe(addr string, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	d := &net.Dialer{}
	return &Probe{addr: addr, timeout: timeout, dial: d.DialContext}
}

// IsLikelyOffline reports whether the probe target is unreachable. False
// means "probably online", never a guarantee.
func (p *Probe) IsLikelyOffline(ctx context.Context) bool {
	if p.addr == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", p.addr)
	if err != nil {
		return true
	}
	_ = conn.Close()
	return false
}
