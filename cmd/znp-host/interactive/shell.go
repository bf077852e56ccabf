// Package interactive provides the interactive command-line interface
// of znp-host.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/provision"
	"github.com/znp-host/znp-go/pkg/wire"
	"github.com/znp-host/znp-go/pkg/zcl"
	"github.com/znp-host/znp-go/pkg/znp"
)

// ConfirmTimeout bounds the wait for the AREQ that completes an onoff or
// endpoints command.
const ConfirmTimeout = 5 * time.Second

// DefaultRadius is the hop limit of AF data requests.
const DefaultRadius = 0x1E

var deviceInfoParams = map[string]command.DeviceInfoParam{
	"state":    command.DevInfoState,
	"ieee":     command.DevInfoIEEEAddr,
	"short":    command.DevInfoShortAddr,
	"parent":   command.DevInfoParentShort,
	"channel":  command.DevInfoChannel,
	"panid":    command.DevInfoPANID,
	"extpanid": command.DevInfoExtendedPANID,
}

// Shell runs commands against one client session.
type Shell struct {
	client *znp.Client
	rl     *readline.Instance
	out    io.Writer

	// endpoint is the local endpoint AF requests are sent from.
	endpoint uint8
	seq      uint8

	mu    sync.Mutex
	watch *znp.Subscription
}

// New creates a shell. endpoint is the local endpoint used as the source
// of ZCL commands.
func New(c *znp.Client, endpoint uint8) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "znp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{client: c, rl: rl, out: rl.Stdout(), endpoint: endpoint}, nil
}

func completer() *readline.PrefixCompleter {
	params := make([]readline.PrefixCompleterInterface, 0, len(deviceInfoParams))
	for name := range deviceInfoParams {
		params = append(params, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("ping"),
		readline.PcItem("version"),
		readline.PcItem("info"),
		readline.PcItem("get", params...),
		readline.PcItem("nv"),
		readline.PcItem("led"),
		readline.PcItem("permit"),
		readline.PcItem("onoff"),
		readline.PcItem("endpoints"),
		readline.PcItem("reset", readline.PcItem("soft"), readline.PcItem("hard")),
		readline.PcItem("watch", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem("stats"),
		readline.PcItem("quit"),
	)
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use it for log output.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run reads commands until quit, EOF, ctx is done or the session ends.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()
	defer s.stopWatch()

	s.printHelp()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := s.rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if err != nil {
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.client.Done():
			fmt.Fprintf(s.out, "Session ended: %v\n", s.client.Err())
			cancel()
			return
		case line, ok := <-lines:
			if !ok || s.exec(ctx, line) {
				fmt.Fprintln(s.out, "Exiting...")
				cancel()
				return
			}
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (s *Shell) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.printHelp()
	case "ping":
		err = s.cmdPing(ctx)
	case "version", "v":
		err = s.cmdVersion(ctx)
	case "info", "i":
		err = s.cmdInfo(ctx)
	case "get":
		err = s.cmdGet(ctx, args)
	case "nv":
		err = s.cmdNV(ctx, args)
	case "led":
		err = s.cmdLED(ctx, args)
	case "permit":
		err = s.cmdPermit(ctx, args)
	case "onoff":
		err = s.cmdOnOff(ctx, args)
	case "endpoints", "ep":
		err = s.cmdEndpoints(ctx, args)
	case "reset":
		err = s.cmdReset(ctx, args)
	case "watch", "w":
		err = s.cmdWatch(args)
	case "stats":
		s.cmdStats()
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
ZNP Commands:
  Device:
    ping                       - Check the link and list capabilities
    version                    - Firmware version
    info                       - Device identity and associated devices
    get <param>                - Read a device parameter (state, ieee, short, parent, channel, panid, extpanid)
    nv <id> [offset]           - Read an NV item
    led <id> on|off            - Switch an LED
    reset [soft|hard]          - Restart the device

  Network:
    permit <seconds> [addr]    - Open the network for joining (0 closes)
    onoff <addr> <ep> on|off|toggle
                               - Send an OnOff cluster command
    endpoints <addr>           - List the active endpoints of a node

  Session:
    watch [on|off]             - Print notifications as they arrive
    stats                      - Client counters

  General:
    help                       - Show this help
    quit                       - Exit`)
}

func (s *Shell) cmdPing(ctx context.Context) error {
	resp, err := znp.Call(ctx, s.client, &command.SysPing{})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Capabilities: 0x%04X\n", resp.Capabilities)
	return nil
}

func (s *Shell) cmdVersion(ctx context.Context) error {
	resp, err := znp.Call(ctx, s.client, &command.SysVersion{})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Firmware: %s (transport %d, product %d)\n", resp, resp.TransportRev, resp.Product)
	return nil
}

func (s *Shell) cmdInfo(ctx context.Context) error {
	info, err := provision.QueryInfo(ctx, s.client)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "IEEE:   %s\n", info.IEEEAddr)
	fmt.Fprintf(s.out, "Short:  %s\n", info.ShortAddr)
	fmt.Fprintf(s.out, "State:  %s\n", info.State)
	fmt.Fprintf(s.out, "Assoc:  %v\n", info.AssocDevices)
	return nil
}

func (s *Shell) cmdGet(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: get <param>")
	}
	p, ok := deviceInfoParams[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown parameter %q", args[0])
	}
	resp, err := znp.Call(ctx, s.client, &command.ZBGetDeviceInfo{Param: p})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s = %s\n", resp.Param, resp)
	return nil
}

func (s *Shell) cmdNV(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: nv <id> [offset]")
	}
	id, err := parseUint(args[0], 16)
	if err != nil {
		return err
	}
	var offset uint64
	if len(args) == 2 {
		if offset, err = parseUint(args[1], 8); err != nil {
			return err
		}
	}
	resp, err := znp.Call(ctx, s.client, &command.SysOSALNVRead{ID: uint16(id), Offset: uint8(offset)})
	if err != nil {
		return err
	}
	if err := resp.Status.Err(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "NV 0x%04X: % X\n", id, resp.Value)
	return nil
}

func (s *Shell) cmdLED(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: led <id> on|off")
	}
	id, err := parseUint(args[0], 8)
	if err != nil {
		return err
	}
	on, err := parseOnOff(args[1])
	if err != nil {
		return err
	}
	resp, err := znp.Call(ctx, s.client, &command.UtilLEDControl{LedID: uint8(id), On: on})
	if err != nil {
		return err
	}
	return resp.Status.Err()
}

func (s *Shell) cmdPermit(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: permit <seconds> [addr]")
	}
	secs, err := parseUint(args[0], 8)
	if err != nil {
		return err
	}
	req := &command.ZDOMgmtPermitJoinReq{AddrMode: command.AddrMode16Bit, DstAddr: 0x0000, Duration: uint8(secs)}
	if len(args) == 2 {
		addr, err := parseUint(args[1], 16)
		if err != nil {
			return err
		}
		req.DstAddr = command.ShortAddr(addr)
		if req.DstAddr == command.BroadcastAll || req.DstAddr == command.BroadcastRouters || req.DstAddr == command.BroadcastRxOnWhenIdle {
			req.AddrMode = command.AddrModeBroadcast
		}
	}
	resp, err := znp.Call(ctx, s.client, req)
	if err != nil {
		return err
	}
	if err := resp.Status.Err(); err != nil {
		return err
	}
	if secs == 0 {
		fmt.Fprintln(s.out, "Joining closed")
	} else {
		fmt.Fprintf(s.out, "Joining open for %ds\n", secs)
	}
	return nil
}

func (s *Shell) cmdOnOff(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: onoff <addr> <ep> on|off|toggle")
	}
	addr, err := parseUint(args[0], 16)
	if err != nil {
		return err
	}
	ep, err := parseUint(args[1], 8)
	if err != nil {
		return err
	}
	var cmd zcl.OnOffCommand
	switch strings.ToLower(args[2]) {
	case "on":
		cmd = zcl.OnOffOn
	case "off":
		cmd = zcl.OnOffOff
	case "toggle":
		cmd = zcl.OnOffToggle
	default:
		return fmt.Errorf("unknown onoff command %q", args[2])
	}

	s.seq++
	frame, err := zcl.NewOnOffFrame(s.seq, cmd).MarshalBinary()
	if err != nil {
		return err
	}
	req := &command.AFDataRequest{
		DstAddr:     command.ShortAddr(addr),
		DstEndpoint: uint8(ep),
		SrcEndpoint: s.endpoint,
		ClusterID:   uint16(zcl.ClusterOnOff),
		TransID:     s.seq,
		Radius:      DefaultRadius,
		Data:        frame,
	}

	// Subscribe first: the confirm can follow the SRSP immediately.
	sub := s.client.Subscribe(4, wire.Key{Subsystem: wire.SubsystemAF, CommandID: command.AFDataConfirmID})
	defer sub.Unsubscribe()

	resp, err := znp.Call(ctx, s.client, req)
	if err != nil {
		return err
	}
	if err := resp.Status.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, ConfirmTimeout)
	defer cancel()
	confirm, err := znp.Await(ctx, sub, func(c *command.AFDataConfirm) bool { return c.TransID == req.TransID })
	if err != nil {
		return fmt.Errorf("waiting for confirm: %w", err)
	}
	if err := confirm.Status.Err(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s sent to %s/%d\n", cmd, req.DstAddr, req.DstEndpoint)
	return nil
}

func (s *Shell) cmdEndpoints(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: endpoints <addr>")
	}
	addr, err := parseUint(args[0], 16)
	if err != nil {
		return err
	}
	req := &command.ZDOActiveEPReq{DstAddr: command.ShortAddr(addr), NWKAddrOfInterest: command.ShortAddr(addr)}

	sub := s.client.Subscribe(4, command.KeyOf(&command.ZDOActiveEPRsp{}))
	defer sub.Unsubscribe()

	resp, err := znp.Call(ctx, s.client, req)
	if err != nil {
		return err
	}
	if err := resp.Status.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, ConfirmTimeout)
	defer cancel()
	rsp, err := znp.Await(ctx, sub, func(r *command.ZDOActiveEPRsp) bool { return r.NWKAddr == req.NWKAddrOfInterest })
	if err != nil {
		return fmt.Errorf("waiting for endpoints: %w", err)
	}
	if err := rsp.Status.Err(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s endpoints: %v\n", rsp.NWKAddr, rsp.Endpoints)
	return nil
}

func (s *Shell) cmdReset(ctx context.Context, args []string) error {
	typ := command.ResetSoft
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "soft":
		case "hard":
			typ = command.ResetHard
		default:
			return errors.New("usage: reset [soft|hard]")
		}
	}
	return s.client.Send(ctx, &command.SysResetReq{Type: typ})
}

func (s *Shell) cmdWatch(args []string) error {
	on := true
	if len(args) > 0 {
		var err error
		if on, err = parseOnOff(args[0]); err != nil {
			return err
		}
	}

	if !on {
		s.stopWatch()
		fmt.Fprintln(s.out, "Watch stopped")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watch != nil {
		return nil
	}
	s.watch = s.client.Subscribe(znp.DefaultSubscriptionBuffer)
	go func(sub *znp.Subscription) {
		for n := range sub.C() {
			fmt.Fprintf(s.out, "<- %s\n", Describe(n))
		}
	}(s.watch)
	fmt.Fprintln(s.out, "Watching notifications")
	return nil
}

func (s *Shell) stopWatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watch != nil {
		s.watch.Unsubscribe()
		s.watch = nil
	}
}

func (s *Shell) cmdStats() {
	st := s.client.Stats()
	fmt.Fprintf(s.out, "Frames:        %d sent, %d received\n", st.FramesSent, st.FramesReceived)
	fmt.Fprintf(s.out, "Responses:     %d (timeouts %d, stale %d)\n", st.Responses, st.Timeouts, st.StaleReplies)
	fmt.Fprintf(s.out, "Notifications: %d (dropped %d, unclassified %d, decode errors %d)\n",
		st.Notifications, st.DroppedNotifications, st.Unclassified, st.DecodeErrors)
}

// Describe formats a notification on one line. ZCL payloads of incoming
// AF messages are decoded.
func Describe(n command.Notification) string {
	msg, ok := n.(*command.AFIncomingMsg)
	if !ok {
		return fmt.Sprintf("%s %+v", command.Name(n), n)
	}

	m, err := zcl.Decode(msg)
	if m == nil {
		return fmt.Sprintf("AFIncomingMsg from %s: %v", msg.SrcAddr, err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%d %s %s", m.SrcAddr, m.SrcEndpoint, m.Cluster, m.Frame)
	if r, ok := m.Command.(*zcl.AttributeReport); ok {
		for _, rec := range r.Records {
			fmt.Fprintf(&b, " 0x%04X=%s", rec.ID, rec.Value)
		}
	} else if m.Command != nil {
		fmt.Fprintf(&b, " %v", m.Command)
	}
	if err != nil {
		fmt.Fprintf(&b, " (%v)", err)
	}
	return b.String()
}

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
