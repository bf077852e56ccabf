package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/provision"
	"github.com/znp-host/znp-go/pkg/znp"
)

func runInfo(ctx context.Context, h *host, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	stats := fs.Bool("stats", false, "Also print client counters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := h.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	info, err := provision.QueryInfo(ctx, c)
	if err != nil {
		return err
	}
	printInfo(os.Stdout, info)
	if *stats {
		fmt.Println()
		printStats(os.Stdout, c.Stats())
	}
	return nil
}

func printInfo(w io.Writer, info *provision.DeviceInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Firmware:\t%s\n", info.Version)
	fmt.Fprintf(tw, "Capabilities:\t0x%04X\n", info.Capabilities)
	fmt.Fprintf(tw, "IEEE address:\t%s\n", info.IEEEAddr)
	fmt.Fprintf(tw, "Short address:\t%s\n", info.ShortAddr)
	fmt.Fprintf(tw, "Device type:\t%s\n", deviceTypes(info.DeviceType))
	fmt.Fprintf(tw, "State:\t%s\n", info.State)
	fmt.Fprintf(tw, "Associated:\t%d\n", len(info.AssocDevices))
	for _, a := range info.AssocDevices {
		fmt.Fprintf(tw, "\t%s\n", a)
	}
	tw.Flush()
}

// deviceTypes names the roles a device supports.
func deviceTypes(bits uint8) string {
	var names []string
	if bits&command.DeviceTypeCoordinator != 0 {
		names = append(names, "coordinator")
	}
	if bits&command.DeviceTypeRouter != 0 {
		names = append(names, "router")
	}
	if bits&command.DeviceTypeEndDevice != 0 {
		names = append(names, "end device")
	}
	if len(names) == 0 {
		return fmt.Sprintf("none (0x%02X)", bits)
	}
	return strings.Join(names, ", ")
}

func printStats(w io.Writer, s znp.Stats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Frames sent:\t%d\n", s.FramesSent)
	fmt.Fprintf(tw, "Frames received:\t%d\n", s.FramesReceived)
	fmt.Fprintf(tw, "Responses:\t%d\n", s.Responses)
	fmt.Fprintf(tw, "Timeouts:\t%d\n", s.Timeouts)
	fmt.Fprintf(tw, "Stale replies:\t%d\n", s.StaleReplies)
	fmt.Fprintf(tw, "Notifications:\t%d\n", s.Notifications)
	fmt.Fprintf(tw, "Dropped:\t%d\n", s.DroppedNotifications)
	fmt.Fprintf(tw, "Unclassified:\t%d\n", s.Unclassified)
	fmt.Fprintf(tw, "Decode errors:\t%d\n", s.DecodeErrors)
	tw.Flush()
}

func runProvision(ctx context.Context, h *host, args []string) error {
	fs := flag.NewFlagSet("provision", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	plan, err := provision.NewPlan(h.cfg)
	if err != nil {
		return err
	}

	c, err := h.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	report, err := provision.Run(ctx, c, plan, h.logger)
	if report != nil {
		printReport(os.Stdout, report)
	}
	return err
}

func printReport(w io.Writer, r *provision.Report) {
	ids := func(list []provision.ConfigID) string {
		if len(list) == 0 {
			return "-"
		}
		s := make([]string, len(list))
		for i, id := range list {
			s[i] = id.String()
		}
		return strings.Join(s, ", ")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Verified:\t%s\n", ids(r.Verified))
	fmt.Fprintf(tw, "Written:\t%s\n", ids(r.Written))
	fmt.Fprintf(tw, "Registered endpoints:\t%v\n", r.Registered)
	fmt.Fprintf(tw, "Startup:\t%s\n", r.Startup)
	fmt.Fprintf(tw, "State:\t%s\n", r.State)
	tw.Flush()
}
