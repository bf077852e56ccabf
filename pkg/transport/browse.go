package transport

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/enbility/zeroconf/v3"
)

// mDNS defaults for network attached coordinators.
const (
	// DefaultService is advertised by common Ethernet/WiFi ZNP bridges.
	DefaultService = "_zigstar_gw._tcp"

	Domain = "local."
)

// Coordinator is a network attached coordinator found by Browse.
type Coordinator struct {
	Instance  string
	Host      string
	Port      uint16
	Addresses []string
	TXT       map[string]string
}

// Device returns a tcp:// device string for Config.Device, preferring the
// first IPv4 address.
func (c *Coordinator) Device() string {
	host := strings.TrimSuffix(c.Host, ".")
	for _, a := range c.Addresses {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			host = a
			break
		}
	}
	if host == "" && len(c.Addresses) > 0 {
		host = c.Addresses[0]
	}
	return SchemeTCP + "://" + net.JoinHostPort(host, strconv.Itoa(int(c.Port)))
}

// BrowseOptions configures Browse.
type BrowseOptions struct {
	// Service type; empty means DefaultService.
	Service string

	// Interface restricts browsing to one network interface.
	Interface string
}

// Browse searches for coordinators until ctx is done. Each instance is
// emitted once until it is withdrawn. The channel is closed when ctx is
// done.
func Browse(ctx context.Context, opts BrowseOptions) (<-chan *Coordinator, error) {
	service := opts.Service
	if service == "" {
		service = DefaultService
	}

	var zopts []zeroconf.ClientOption
	if opts.Interface != "" {
		iface, err := net.InterfaceByName(opts.Interface)
		if err != nil {
			return nil, err
		}
		zopts = append(zopts, zeroconf.SelectIfaces([]net.Interface{*iface}))
	}

	out := make(chan *Coordinator)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)

		seen := make(map[string]bool)
		var gone <-chan *zeroconf.ServiceEntry = removed
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				c := newCoordinator(entry.Instance, entry.HostName, entry.Port, entry.AddrIPv4, entry.AddrIPv6, entry.Text)
				if seen[c.Instance] || len(c.Addresses) == 0 {
					continue
				}
				seen[c.Instance] = true
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-gone:
				if !ok {
					gone = nil
					continue
				}
				delete(seen, entry.Instance)

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, service, Domain, entries, removed, zopts...)
	}()

	return out, nil
}

func newCoordinator(instance, host string, port int, v4, v6 []net.IP, text []string) *Coordinator {
	addrs := make([]string, 0, len(v4)+len(v6))
	for _, ip := range v4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range v6 {
		addrs = append(addrs, ip.String())
	}
	return &Coordinator{
		Instance:  instance,
		Host:      host,
		Port:      uint16(port),
		Addresses: addrs,
		TXT:       parseTXT(text),
	}
}

// parseTXT turns key=value TXT strings into a map. Keys are lower-cased;
// a key without '=' maps to the empty string.
func parseTXT(text []string) map[string]string {
	m := make(map[string]string, len(text))
	for _, kv := range text {
		k, v, _ := strings.Cut(kv, "=")
		if k == "" {
			continue
		}
		m[strings.ToLower(k)] = v
	}
	return m
}
