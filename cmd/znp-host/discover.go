package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/znp-host/znp-go/pkg/transport"
)

func runDiscover(ctx context.Context, h *host, args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	service := fs.String("service", transport.DefaultService, "mDNS service type")
	iface := fs.String("iface", "", "Network interface to browse on")
	timeout := fs.Duration("timeout", 5*time.Second, "How long to browse")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	found, err := transport.Browse(ctx, transport.BrowseOptions{Service: *service, Interface: *iface})
	if err != nil {
		return err
	}
	h.logger.Debug("browsing", "service", *service, "timeout", *timeout)

	n := 0
	for c := range found {
		printCoordinator(os.Stdout, c)
		n++
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "No coordinators found")
	}
	return nil
}

func printCoordinator(w io.Writer, c *transport.Coordinator) {
	fmt.Fprintf(w, "%s\n", c.Instance)
	fmt.Fprintf(w, "  Device:    %s\n", c.Device())
	fmt.Fprintf(w, "  Host:      %s\n", c.Host)
	fmt.Fprintf(w, "  Addresses: %s\n", strings.Join(c.Addresses, ", "))
	if len(c.TXT) > 0 {
		keys := make([]string, 0, len(c.TXT))
		for k := range c.TXT {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s=%s\n", k, c.TXT[k])
		}
	}
}
