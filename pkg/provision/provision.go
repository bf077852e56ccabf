package provision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/znp"
)

// DefaultStartTimeout bounds the wait for ZB_COORD when the plan has none.
const DefaultStartTimeout = 10 * time.Second

// ErrNetworkNotStarted is returned when the device does not reach the
// coordinator state in time.
var ErrNetworkNotStarted = errors.New("network not started")

// Report summarizes a provisioning run.
type Report struct {
	// Verified lists items that already had the expected value.
	Verified []ConfigID
	// Written lists items that were rewritten.
	Written []ConfigID
	// Registered lists endpoints registered by this run.
	Registered []uint8
	Startup    command.StartupStatus
	State      command.DeviceState
}

// Run executes plan on c. It stops at the first failing step.
func Run(ctx context.Context, c *znp.Client, plan *Plan, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Report{}

	for _, item := range plan.Items {
		written, err := syncItem(ctx, c, item)
		if err != nil {
			return r, err
		}
		if written {
			logger.Info("configuration written", "item", item.ID, "value", fmt.Sprintf("%X", item.Value))
			r.Written = append(r.Written, item.ID)
		} else {
			logger.Debug("configuration verified", "item", item.ID)
			r.Verified = append(r.Verified, item.ID)
		}
	}

	for i := range plan.Endpoints {
		ep := &plan.Endpoints[i]
		resp, err := znp.Call(ctx, c, ep)
		if err != nil {
			return r, fmt.Errorf("register endpoint %d: %w", ep.Endpoint, err)
		}
		switch resp.Status {
		case command.StatusSuccess:
			logger.Info("endpoint registered", "endpoint", ep.Endpoint, "profile", fmt.Sprintf("0x%04X", ep.AppProfID))
			r.Registered = append(r.Registered, ep.Endpoint)
		case command.StatusAPSDuplicate:
			logger.Debug("endpoint already registered", "endpoint", ep.Endpoint)
		default:
			return r, fmt.Errorf("register endpoint %d: %w", ep.Endpoint, resp.Status.Err())
		}
	}

	if err := start(ctx, c, plan, r, logger); err != nil {
		return r, err
	}
	return r, nil
}

// syncItem writes item if the device holds a different value.
func syncItem(ctx context.Context, c *znp.Client, item Item) (bool, error) {
	cur, err := znp.Call(ctx, c, &command.ZBReadConfiguration{ConfigID: uint8(item.ID)})
	if err != nil {
		return false, fmt.Errorf("read %s: %w", item.ID, err)
	}
	if cur.Status.IsSuccess() && bytes.Equal(cur.Value, item.Value) {
		return false, nil
	}

	resp, err := znp.Call(ctx, c, &command.ZBWriteConfiguration{ConfigID: uint8(item.ID), Value: item.Value})
	if err != nil {
		return false, fmt.Errorf("write %s: %w", item.ID, err)
	}
	if err := resp.Status.Err(); err != nil {
		return false, fmt.Errorf("write %s: %w", item.ID, err)
	}
	return true, nil
}

func start(ctx context.Context, c *znp.Client, plan *Plan, r *Report, logger *slog.Logger) error {
	sub := c.Subscribe(0, command.KeyOf(&command.ZDOStateChangeInd{}))
	defer sub.Unsubscribe()

	resp, err := znp.Call(ctx, c, &command.ZDOStartupFromApp{StartDelay: plan.StartDelay})
	if err != nil {
		return fmt.Errorf("start network: %w", err)
	}
	r.Startup = resp.Status
	logger.Info("network starting", "startup", resp.Status)

	info, err := znp.Call(ctx, c, &command.ZBGetDeviceInfo{Param: command.DevInfoState})
	if err != nil {
		return fmt.Errorf("read device state: %w", err)
	}
	if state := command.DeviceState(info.Value[0]); state == command.DeviceStateCoordinator {
		r.State = state
		return nil
	}

	timeout := plan.StartTimeout
	if timeout <= 0 {
		timeout = DefaultStartTimeout
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ind, err := znp.Await(wctx, sub, func(n *command.ZDOStateChangeInd) bool {
		logger.Debug("device state", "state", n.State)
		return n.State == command.DeviceStateCoordinator
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkNotStarted, err)
	}
	r.State = ind.State
	return nil
}
