package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/connection"
	"github.com/znp-host/znp-go/pkg/provision"
	"github.com/znp-host/znp-go/pkg/zcl"
	"github.com/znp-host/znp-go/pkg/znp"
)

func runHost(ctx context.Context, h *host, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	skipProvision := fs.Bool("no-provision", false, "Do not provision the coordinator on connect")
	permit := fs.Uint("permit-join", 0, "Open the network for joining for this many seconds after start (max 254)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *permit > 254 {
		return fmt.Errorf("permit-join: %d exceeds 254 seconds", *permit)
	}

	plan, err := provision.NewPlan(h.cfg)
	if err != nil {
		return err
	}

	maxAttempts := h.cfg.Reconnect.MaxAttempts
	if !h.cfg.Reconnect.Enabled {
		maxAttempts = 1
	}

	sup := connection.NewSupervisor(h.dial, connection.Config{
		Backoff: connection.BackoffConfig{
			Initial: h.cfg.Reconnect.Initial,
			Max:     h.cfg.Reconnect.Max,
		},
		MaxAttempts:   maxAttempts,
		ClientOptions: h.clientOptions(),
		OnSession: func(ctx context.Context, c *znp.Client) error {
			if !*skipProvision {
				report, err := provision.Run(ctx, c, plan, h.logger)
				if err != nil {
					return err
				}
				h.logger.Info("coordinator ready",
					"written", len(report.Written),
					"verified", len(report.Verified),
					"registered", report.Registered,
					"state", report.State)
			}
			if *permit > 0 {
				if err := permitJoin(ctx, c, uint8(*permit)); err != nil {
					return err
				}
				h.logger.Info("network open for joining", "seconds", *permit)
			}

			sub := c.Subscribe(h.cfg.Client.SubscriptionBuffer)
			go monitor(ctx, sub, h.logger)
			return nil
		},
		OnStateChange: func(old, new connection.State) {
			h.logger.Debug("link state", "from", old, "to", new)
		},
		Logger: h.logger,
	})

	err = sup.Run(ctx)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

func permitJoin(ctx context.Context, c *znp.Client, seconds uint8) error {
	resp, err := znp.Call(ctx, c, &command.ZDOMgmtPermitJoinReq{
		AddrMode: command.AddrMode16Bit,
		DstAddr:  0x0000,
		Duration: seconds,
	})
	if err != nil {
		return fmt.Errorf("permit join: %w", err)
	}
	if err := resp.Status.Err(); err != nil {
		return fmt.Errorf("permit join: %w", err)
	}
	return nil
}

// monitor logs notifications until the session ends.
func monitor(ctx context.Context, sub *znp.Subscription, logger *slog.Logger) {
	defer sub.Unsubscribe()
	for {
		n, err := sub.Next(ctx)
		if err != nil {
			if d := sub.Dropped(); d > 0 {
				logger.Warn("notifications dropped", "count", d)
			}
			return
		}
		logNotification(logger, n)
	}
}

func logNotification(logger *slog.Logger, n command.Notification) {
	switch n := n.(type) {
	case *command.AFIncomingMsg:
		logIncoming(logger, n)
	case *command.ZDOStateChangeInd:
		logger.Info("network state", "state", n.State)
	case *command.ZDOEndDeviceAnnceInd:
		logger.Info("device announced", "nwk", n.NWKAddr, "ieee", n.IEEEAddr, "capabilities", n.Capabilities)
	case *command.ZDOTCDevInd:
		logger.Info("device joined", "nwk", n.SrcNWKAddr, "ieee", n.ExtAddr, "parent", n.ParentNWKAddr)
	case *command.ZDOLeaveInd:
		logger.Info("device left", "nwk", n.SrcAddr, "ieee", n.ExtAddr, "rejoin", n.Rejoin)
	case *command.ZDOPermitJoinInd:
		logger.Info("permit join", "seconds", n.Duration)
	case *command.SysResetInd:
		logger.Warn("device reset", "reason", n.Reason, "version", fmt.Sprintf("%d.%d", n.MajorRel, n.MinorRel))
	case *command.AFDataConfirm:
		if err := n.Status.Err(); err != nil {
			logger.Warn("data request failed", "endpoint", n.Endpoint, "trans", n.TransID, "error", err)
			return
		}
		logger.Debug("data request confirmed", "endpoint", n.Endpoint, "trans", n.TransID)
	default:
		logger.Debug("notification", "name", command.Name(n), "value", fmt.Sprintf("%+v", n))
	}
}

func logIncoming(logger *slog.Logger, msg *command.AFIncomingMsg) {
	m, err := zcl.Decode(msg)
	if m == nil {
		logger.Warn("malformed ZCL frame", "src", msg.SrcAddr, "cluster", zcl.ClusterID(msg.ClusterID), "error", err)
		return
	}
	src := slog.Group("src", "addr", m.SrcAddr, "endpoint", m.SrcEndpoint)

	if r, ok := m.Command.(*zcl.AttributeReport); ok {
		for _, rec := range r.Records {
			if v, ok := zcl.Measurement(m.Cluster, rec.Value); ok && rec.ID == zcl.AttrMeasuredValue {
				logger.Info("measurement", src, "cluster", m.Cluster, "value", v)
				continue
			}
			logger.Info("attribute", src, "cluster", m.Cluster,
				"attr", fmt.Sprintf("0x%04X", rec.ID), "value", rec.Value.String())
		}
	} else if m.Command != nil {
		logger.Info("zcl command", src, "cluster", m.Cluster, "command", fmt.Sprintf("%+v", m.Command))
	}

	if err != nil {
		logger.Warn("zcl decode", src, "cluster", m.Cluster, "frame", m.Frame.String(), "error", err)
	}
}
