package deploy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// PortStatus reports one service port probe.
type PortStatus struct {
	Port    int
	Up      bool
	Healthy bool
	Detail  string
}

// Prober checks service liveness across a port fleet.
type Prober struct {
	Host        string
	DialTimeout time.Duration
	CheckHealth bool
	client      *http.Client
}

func NewProber(host string, checkHealth bool) *Prober {
	return &Prober{
		Host:        host,
		DialTimeout: 3 * time.Second,
		CheckHealth: checkHealth,
		client:      &http.Client{Timeout: 5 * time.Second},
	}
}

// ProbeAll dials every port concurrently. Results come back sorted by port;
// the error is nil even when ports are down, callers inspect the statuses.
func (p *Prober) ProbeAll(ctx context.Context, ports []int) []PortStatus {
	results := make([]PortStatus, len(ports))
	g, ctx := errgroup.WithContext(ctx)

	for i, port := range ports {
		g.Go(func() error {
			results[i] = p.probe(ctx, port)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Port < results[j].Port })
	return results
}

func (p *Prober) probe(ctx context.Context, port int) PortStatus {
	status := PortStatus{Port: port}
	addr := net.JoinHostPort(p.Host, fmt.Sprintf("%d", port))

	d := net.Dialer{Timeout: p.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	conn.Close()
	status.Up = true

	if !p.CheckHealth {
		status.Healthy = true
		return status
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://%s/health", addr), nil)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	resp, err := p.client.Do(req)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		status.Healthy = true
	} else {
		status.Detail = fmt.Sprintf("health returned HTTP %d", resp.StatusCode)
	}
	return status
}

// CountUp tallies the healthy services in a probe result.
func CountUp(statuses []PortStatus) int {
	up := 0
	for _, s := range statuses {
		if s.Up && s.Healthy {
			up++
		}
	}
	return up
}
