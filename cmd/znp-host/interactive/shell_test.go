package interactive

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/znp-host/znp-go/pkg/command"
	"github.com/znp-host/znp-go/pkg/payload"
	"github.com/znp-host/znp-go/pkg/transport"
	"github.com/znp-host/znp-go/pkg/wire"
	"github.com/znp-host/znp-go/pkg/znp"
)

// device answers the requests the shell sends.
type device struct {
	mu      sync.Mutex
	leds    map[uint8]bool
	data    []command.AFDataRequest
	permits []command.ZDOMgmtPermitJoinReq
	resets  []command.ResetType

	// confirm is the status reported by AF_DATA_CONFIRM.
	confirm command.Status

	fw *transport.FrameWriter
}

func newShell(t *testing.T) (*Shell, *device, *bytes.Buffer) {
	t.Helper()
	host, dev := net.Pipe()
	d := &device{leds: make(map[uint8]bool), fw: transport.NewFrameWriter(dev)}
	go d.serve(transport.NewFrameReader(dev))

	c := znp.NewClient(host, znp.WithTimeout(time.Second))
	t.Cleanup(func() {
		_ = c.Close()
		_ = dev.Close()
	})

	var out bytes.Buffer
	return &Shell{client: c, out: &out, endpoint: 1}, d, &out
}

func (d *device) serve(fr *transport.FrameReader) {
	for {
		f, err := fr.ReadFrame()
		if err != nil {
			return
		}
		d.handle(f)
	}
}

func (d *device) send(typ wire.Type, c command.Command) {
	b, err := payload.Marshal(c)
	if err != nil {
		panic(err)
	}
	_ = d.fw.WriteFrame(wire.Frame{Type: typ, Subsystem: c.Subsystem(), CommandID: c.CommandID(), Payload: b})
}

func (d *device) handle(f wire.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch f.Key() {
	case command.KeyOf(&command.SysPing{}):
		d.send(wire.TypeSyncResp, &command.SysPingResponse{Capabilities: 0x0179})

	case command.KeyOf(&command.SysVersion{}):
		d.send(wire.TypeSyncResp, &command.SysVersionResponse{TransportRev: 2, Product: 1, MajorRel: 2, MinorRel: 7, MaintRel: 1})

	case command.KeyOf(&command.ZBGetDeviceInfo{}):
		var req command.ZBGetDeviceInfo
		_ = command.Decode(f, &req)
		resp := &command.ZBGetDeviceInfoResponse{Param: req.Param}
		switch req.Param {
		case command.DevInfoState:
			resp.Value[0] = byte(command.DeviceStateCoordinator)
		case command.DevInfoChannel:
			resp.Value[0] = 11
		}
		d.send(wire.TypeSyncResp, resp)

	case command.KeyOf(&command.SysOSALNVRead{}):
		var req command.SysOSALNVRead
		_ = command.Decode(f, &req)
		if req.ID != 0x0003 {
			d.send(wire.TypeSyncResp, &command.SysOSALNVReadResponse{Status: command.StatusNVItemUninit, Value: []byte{}})
			return
		}
		d.send(wire.TypeSyncResp, &command.SysOSALNVReadResponse{Value: []byte{0x02}})

	case command.KeyOf(&command.UtilLEDControl{}):
		var req command.UtilLEDControl
		_ = command.Decode(f, &req)
		d.leds[req.LedID] = req.On
		d.send(wire.TypeSyncResp, &command.UtilLEDControlResponse{})

	case command.KeyOf(&command.ZDOMgmtPermitJoinReq{}):
		var req command.ZDOMgmtPermitJoinReq
		_ = command.Decode(f, &req)
		d.permits = append(d.permits, req)
		d.send(wire.TypeSyncResp, &command.ZDOMgmtPermitJoinReqResponse{})

	case command.KeyOf(&command.AFDataRequest{}):
		var req command.AFDataRequest
		_ = command.Decode(f, &req)
		d.data = append(d.data, req)
		d.send(wire.TypeSyncResp, &command.AFDataRequestResponse{})
		d.send(wire.TypeAsyncReq, &command.AFDataConfirm{Status: d.confirm, Endpoint: req.SrcEndpoint, TransID: req.TransID})

	case command.KeyOf(&command.ZDOActiveEPReq{}):
		var req command.ZDOActiveEPReq
		_ = command.Decode(f, &req)
		d.send(wire.TypeSyncResp, &command.ZDOActiveEPReqResponse{})
		rsp := &command.ZDOActiveEPRsp{SrcAddr: req.DstAddr, NWKAddr: req.NWKAddrOfInterest, Endpoints: []uint8{}}
		if req.NWKAddrOfInterest == 0x1234 {
			rsp.Endpoints = []uint8{1, 242}
		} else {
			rsp.Status = command.StatusZDOInvalidReq
		}
		d.send(wire.TypeAsyncReq, rsp)

	case command.KeyOf(&command.SysResetReq{}):
		var req command.SysResetReq
		_ = command.Decode(f, &req)
		d.resets = append(d.resets, req.Type)
		d.send(wire.TypeAsyncReq, &command.SysResetInd{Reason: command.ResetReasonExternal, TransportRev: 2, Product: 1, MajorRel: 2, MinorRel: 7})
	}
}

func TestShellPing(t *testing.T) {
	s, _, out := newShell(t)

	assert.False(t, s.exec(context.Background(), "ping"))
	assert.Contains(t, out.String(), "Capabilities: 0x0179")
}

func TestShellGet(t *testing.T) {
	s, _, out := newShell(t)
	ctx := context.Background()

	s.exec(ctx, "get state")
	assert.Contains(t, out.String(), "DevState = ZB_COORD")

	out.Reset()
	s.exec(ctx, "get CHANNEL")
	assert.Contains(t, out.String(), "Channel = 11")

	out.Reset()
	s.exec(ctx, "get nothing")
	assert.Contains(t, out.String(), `Error: unknown parameter "nothing"`)

	out.Reset()
	s.exec(ctx, "get")
	assert.Contains(t, out.String(), "Error: usage: get <param>")
}

func TestShellNV(t *testing.T) {
	s, _, out := newShell(t)
	ctx := context.Background()

	s.exec(ctx, "nv 0x0003")
	assert.Contains(t, out.String(), "NV 0x0003: 02")

	out.Reset()
	s.exec(ctx, "nv 0x0062 0")
	assert.Contains(t, out.String(), "Error: device status")

	out.Reset()
	s.exec(ctx, "nv 0x10000")
	assert.Contains(t, out.String(), `Error: invalid number "0x10000"`)
}

func TestShellLED(t *testing.T) {
	s, d, out := newShell(t)
	ctx := context.Background()

	s.exec(ctx, "led 1 on")
	s.exec(ctx, "led 2 off")
	assert.Empty(t, out.String())

	d.mu.Lock()
	assert.Equal(t, map[uint8]bool{1: true, 2: false}, d.leds)
	d.mu.Unlock()

	s.exec(ctx, "led 1 blink")
	assert.Contains(t, out.String(), `expected on or off, got "blink"`)
}

func TestShellPermit(t *testing.T) {
	s, d, out := newShell(t)
	ctx := context.Background()

	s.exec(ctx, "permit 60")
	assert.Contains(t, out.String(), "Joining open for 60s")

	out.Reset()
	s.exec(ctx, "permit 0 0xFFFC")
	assert.Contains(t, out.String(), "Joining closed")

	d.mu.Lock()
	defer d.mu.Unlock()
	require.Len(t, d.permits, 2)
	assert.Equal(t, command.AddrMode16Bit, d.permits[0].AddrMode)
	assert.Equal(t, command.ShortAddr(0x0000), d.permits[0].DstAddr)
	assert.Equal(t, uint8(60), d.permits[0].Duration)
	assert.Equal(t, command.AddrModeBroadcast, d.permits[1].AddrMode)
	assert.Equal(t, command.BroadcastRouters, d.permits[1].DstAddr)
}

func TestShellOnOff(t *testing.T) {
	s, d, out := newShell(t)
	ctx := context.Background()

	s.exec(ctx, "onoff 0x1234 3 toggle")
	assert.Contains(t, out.String(), "Toggle sent to 0x1234/3")

	d.mu.Lock()
	require.Len(t, d.data, 1)
	req := d.data[0]
	d.mu.Unlock()

	assert.Equal(t, command.ShortAddr(0x1234), req.DstAddr)
	assert.Equal(t, uint8(3), req.DstEndpoint)
	assert.Equal(t, uint8(1), req.SrcEndpoint)
	assert.Equal(t, uint16(0x0006), req.ClusterID)
	assert.Equal(t, uint8(DefaultRadius), req.Radius)
	// Cluster specific, client to server, sequence 1, Toggle.
	assert.Equal(t, []byte{0x01, 0x01, 0x02}, req.Data)
	assert.Equal(t, uint8(1), req.TransID)
}

func TestShellOnOffConfirmFailure(t *testing.T) {
	s, d, out := newShell(t)
	d.confirm = command.StatusMACNoAck

	s.exec(context.Background(), "onoff 0x1234 1 on")
	assert.Contains(t, out.String(), "Error: device status MAC_NO_ACK")
}

func TestShellOnOffUsage(t *testing.T) {
	s, _, out := newShell(t)

	s.exec(context.Background(), "onoff 0x1234 1 dim")
	assert.Contains(t, out.String(), `unknown onoff command "dim"`)
}

func TestShellEndpoints(t *testing.T) {
	s, _, out := newShell(t)
	ctx := context.Background()

	assert.False(t, s.exec(ctx, "endpoints 0x1234"))
	assert.Contains(t, out.String(), "0x1234 endpoints: [1 242]")

	out.Reset()
	s.exec(ctx, "ep 0x5678")
	assert.Contains(t, out.String(), "Error: device status ZDO_INVALID_REQUEST_TYPE")

	out.Reset()
	s.exec(ctx, "endpoints")
	assert.Contains(t, out.String(), "Error: usage: endpoints <addr>")
}

func TestShellReset(t *testing.T) {
	s, d, _ := newShell(t)
	sub := s.client.Subscribe(4, command.KeyOf(&command.SysResetInd{}))
	defer sub.Unsubscribe()

	s.exec(context.Background(), "reset hard")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ind, err := znp.Await[*command.SysResetInd](ctx, sub, nil)
	require.NoError(t, err)
	assert.Equal(t, command.ResetReasonExternal, ind.Reason)

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Equal(t, []command.ResetType{command.ResetHard}, d.resets)
}

func TestShellStats(t *testing.T) {
	s, _, out := newShell(t)
	ctx := context.Background()

	s.exec(ctx, "ping")
	out.Reset()
	s.exec(ctx, "stats")
	assert.Contains(t, out.String(), "Frames:        1 sent, 1 received")
	assert.Contains(t, out.String(), "Responses:     1 (timeouts 0, stale 0)")
}

func TestShellQuit(t *testing.T) {
	s, _, out := newShell(t)
	ctx := context.Background()

	assert.False(t, s.exec(ctx, ""))
	assert.False(t, s.exec(ctx, "bogus"))
	assert.Contains(t, out.String(), "Unknown command: bogus")
	assert.True(t, s.exec(ctx, "quit"))
	assert.True(t, s.exec(ctx, "q"))
}

func TestDescribe(t *testing.T) {
	msg := &command.AFIncomingMsg{
		ClusterID:   0x0402,
		SrcAddr:     0x1234,
		SrcEndpoint: 1,
		DstEndpoint: 1,
		Data:        []byte{0x18, 0x01, 0x0A, 0x00, 0x00, 0x29, 0x10, 0x09},
	}
	assert.Equal(t, "0x1234/1 Temperature general seq=1 cmd=0x0A server->client 0x0000=int16(2320)", Describe(msg))

	msg.Data = []byte{0x18}
	assert.Contains(t, Describe(msg), "AFIncomingMsg from 0x1234")

	assert.Equal(t, "SysTimerExpired &{TimerID:2}", Describe(&command.SysTimerExpired{TimerID: 2}))
}
