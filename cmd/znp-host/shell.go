package main

import (
	"context"
	"errors"
	"flag"

	"github.com/znp-host/znp-go/cmd/znp-host/interactive"
)

func runShell(ctx context.Context, h *host, args []string) error {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	endpoint := fs.Uint("endpoint", 0, "Source endpoint for ZCL commands (default: first configured endpoint)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *endpoint > 240 {
		return errors.New("endpoint must be 1-240")
	}
	ep := uint8(*endpoint)
	if ep == 0 {
		if len(h.cfg.Endpoints) == 0 {
			return errors.New("no endpoint configured; use -endpoint")
		}
		ep = h.cfg.Endpoints[0].Endpoint
	}

	c, err := h.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	sh, err := interactive.New(c, ep)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sh.Run(ctx, cancel)
	return nil
}
