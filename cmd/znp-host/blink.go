package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/wire"
	"github.com/znp-host/znp-go/pkg/znp"
)

// blinkConfig drives the LED demo. Each cycle ramps the on/off ratio of
// the LED up and back down over Steps switches in each direction.
type blinkConfig struct {
	LED    uint8
	Steps  int
	Cycles int // 0 runs until ctx is done
	Unit   time.Duration
}

func runBlink(ctx context.Context, h *host, args []string) error {
	fs := flag.NewFlagSet("blink", flag.ExitOnError)
	led := fs.Uint("led", 1, "LED to blink")
	steps := fs.Int("steps", 1000, "Switches per ramp")
	cycles := fs.Int("cycles", 0, "Ramp cycles, 0 runs until interrupted")
	unit := fs.Duration("unit", time.Microsecond, "Delay per ramp step")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *led > 0xFF || *steps <= 0 {
		return fmt.Errorf("invalid led %d or steps %d", *led, *steps)
	}

	c, err := h.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	return blink(ctx, c, os.Stdout, h.logger, blinkConfig{
		LED:    uint8(*led),
		Steps:  *steps,
		Cycles: *cycles,
		Unit:   *unit,
	})
}

func blink(ctx context.Context, c *znp.Client, w io.Writer, logger *slog.Logger, cfg blinkConfig) error {
	for _, p := range []command.DeviceInfoParam{command.DevInfoState, command.DevInfoIEEEAddr, command.DevInfoShortAddr} {
		resp, err := znp.Call(ctx, c, &command.ZBGetDeviceInfo{Param: p})
		if err != nil {
			return fmt.Errorf("get %s: %w", p, err)
		}
		fmt.Fprintf(w, "%-10s %s\n", resp.Param.String()+":", resp)
	}

	timers := c.Subscribe(4, wire.Key{Subsystem: wire.SubsystemSYS, CommandID: command.SysTimerExpiredID})
	defer timers.Unsubscribe()
	go func() {
		for n := range timers.C() {
			logger.Info("timer expired", "timer", n.(*command.SysTimerExpired).TimerID)
		}
	}()

	for id := uint8(0); id <= 3; id++ {
		timeout := 50 - 10*uint16(id)
		resp, err := znp.Call(ctx, c, &command.SysStartTimer{TimerID: id, Timeout: timeout})
		if err != nil {
			return fmt.Errorf("start timer %d: %w", id, err)
		}
		fmt.Fprintf(w, "timer %d: %dms %s\n", id, timeout, resp.Status)
	}

	for id := uint8(1); id <= 2; id++ {
		if err := setLED(ctx, c, id, false); err != nil {
			return err
		}
	}

	on := true
	for cycle := 0; cfg.Cycles == 0 || cycle < cfg.Cycles; cycle++ {
		for n := 0; n < 2*cfg.Steps; n++ {
			i := n
			if n >= cfg.Steps {
				i = 2*cfg.Steps - 1 - n
			}
			on = !on
			if err := setLED(ctx, c, cfg.LED, on); err != nil {
				return err
			}

			d := time.Duration(cfg.Steps-i) * cfg.Unit
			if on {
				d = time.Duration(i) * cfg.Unit
			}
			if err := sleep(ctx, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func setLED(ctx context.Context, c *znp.Client, id uint8, on bool) error {
	resp, err := znp.Call(ctx, c, &command.UtilLEDControl{LedID: id, On: on})
	if err != nil {
		return fmt.Errorf("led %d: %w", id, err)
	}
	if err := resp.Status.Err(); err != nil {
		return fmt.Errorf("led %d: %w", id, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
