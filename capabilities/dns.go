package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// DNSLookupArgs contains parameters for a net.dns/lookup_host call.
type DNSLookupArgs struct {
	// Host is the name to resolve.
	Host string `json:"host"`
}

// DNSLookupResult is the payload returned for a net.dns/lookup_host call.
type DNSLookupResult struct {
	// IPs contains the resolved addresses, sorted so that repeated lookups
	// against a stable DNS view record identically.
	IPs []string `json:"ips"`
}

func (g *Gateway) dnsLookupHost(ctx context.Context, args map[string]any) (json.RawMessage, error) {
	var req DNSLookupArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.Host == "" {
		return nil, fmt.Errorf("lookup_host requires a 'host' argument")
	}

	ips, err := g.resolver.LookupHost(ctx, req.Host)
	if err != nil {
		return nil, err
	}
	sort.Strings(ips)

	return json.Marshal(DNSLookupResult{IPs: ips})
}
