package idm

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/satori/go.uuid"
)

// LogicalPayload is the fully-assembled upload body for one family
// before chunking (§3 "LogicalPayload", §4.6 step 1-2). The family-
// specific fields below are only consulted by buildFrames/runPreamble
// for the family they name; every other family ignores them.
type LogicalPayload struct {
	Family Family
	Bytes  []byte
	CRC32  uint32
	Total  uint32

	// DIYBrightness is the 0-100 client-side scaling percentage applied
	// to DIY chunk bodies before they're sent (§4.6 "DIY specifics").
	// 100 means unscaled.
	DIYBrightness int

	// GifTail selects the GIF media-header tail encoding (§4.6 "GIF
	// upload specifics").
	GifTail MediaTailOptions

	// ScheduleSlot is armed by the setup handshake before a schedule
	// upload's chunks are sent (§4.6 "Timer/Schedule specifics").
	ScheduleSlot byte

	// OTAType is the vendor-defined firmware type byte sent in the OTA
	// step-1 setup frame (§4.6 "OTA specifics").
	OTAType byte
}

// NewLogicalPayload wraps bytes with their CRC32 and length, as the
// coordinator expects to receive them. DIYBrightness defaults to 100
// (unscaled); GIF payloads default to immediate display.
func NewLogicalPayload(family Family, bytes []byte) LogicalPayload {
	p := LogicalPayload{Family: family, Bytes: bytes, CRC32: CRC32(bytes), Total: uint32(len(bytes)), DIYBrightness: 100}
	if family == FamilyGif {
		p.GifTail = MediaTailOptions{DisplayIndex: gifImmediateDisplayIndex}
	}
	return p
}

// NewDIYLogicalPayload wraps a raw RGB frame payload for a DIY upload
// at less than full brightness.
func NewDIYLogicalPayload(bytes []byte, brightnessPercent int) (LogicalPayload, error) {
	if brightnessPercent < 0 || brightnessPercent > 100 {
		return LogicalPayload{}, &CodecError{Kind: "InvalidField", Family: FamilyDIY, Field: "brightness out of range 0..100"}
	}
	p := NewLogicalPayload(FamilyDIY, bytes)
	p.DIYBrightness = brightnessPercent
	return p, nil
}

// NewGifLogicalPayload wraps raw GIF bytes destined for a material or
// schedule slot rather than immediate display.
func NewGifLogicalPayload(bytes []byte, tail MediaTailOptions) LogicalPayload {
	p := NewLogicalPayload(FamilyGif, bytes)
	p.GifTail = tail
	return p
}

// diyScaledHeaderBytes is how many leading bytes of each DIY chunk body
// the device treats as a sub-header rather than pixel data; brightness
// scaling must not touch them (§4.6 "DIY specifics").
const diyScaledHeaderBytes = 5

func scaleDIYBrightness(body []byte, brightnessPercent int) []byte {
	if brightnessPercent == 100 || len(body) <= diyScaledHeaderBytes {
		return body
	}
	out := append([]byte(nil), body...)
	for i := diyScaledHeaderBytes; i < len(out); i++ {
		out[i] = byte(int(out[i]) * brightnessPercent / 100)
	}
	return out
}

// TransferState is the coordinator's per-session state machine
// (§4.6 "States": Idle -> Sending(i) -> AwaitingAck(i) -> Sending(i+1)
// | Complete | Failed(reason)).
type TransferState int

const (
	StateIdle TransferState = iota
	StateSending
	StateAwaitingAck
	StateComplete
	StateFailed
)

// fragmentSizeFor implements §4.6 step 4: 509-byte fragments once MTU
// negotiation succeeds (MTU >= 100), 18-byte fragments otherwise
// (§7 "MTU degrade path").
func fragmentSizeFor(negotiatedMTU int) int {
	if negotiatedMTU >= 100 {
		return 509
	}
	return 18
}

// buildFrames splits a LogicalPayload into its per-family framed chunks
// (header + body), each chunk's body capped at 4096 bytes (§4.6 step 2
// "Chunking"). extraHeader supplies the timer/schedule family-specific
// tail fields codec.go can't derive on its own.
func buildFrames(p LogicalPayload, extraHeader []byte) ([][]byte, error) {
	bodies := splitBody(p.Bytes, maxChunkBody)
	if len(bodies) == 0 {
		bodies = [][]byte{{}}
	}
	frames := make([][]byte, 0, len(bodies))
	for i, body := range bodies {
		flag := ChunkFirst
		if i > 0 {
			flag = ChunkContinuation
		}
		var header []byte
		var err error
		switch p.Family {
		case FamilyText, FamilyImage:
			header = EncodeMediaHeader(p.Family, flag, len(body), p.Total, p.CRC32, [3]byte{})
		case FamilyGif:
			var tail [3]byte
			tail, err = gifTail(p.GifTail)
			if err == nil {
				header = EncodeMediaHeader(p.Family, flag, len(body), p.Total, p.CRC32, tail)
			}
		case FamilyDIY:
			body = scaleDIYBrightness(body, p.DIYBrightness)
			header = EncodeDIYHeader(flag, len(body), p.Total)
		case FamilyTimer:
			header, err = EncodeTimerHeader(flag, len(body), p.Total, p.CRC32, extraHeader)
		case FamilySchedule:
			header, err = EncodeScheduleHeader(flag, len(body), p.Total, p.CRC32, extraHeader)
		case FamilyOTA:
			header = EncodeOTAHeader(byte(i), CRC32(body), uint32(len(body)))
		default:
			return nil, &CodecError{Kind: "InvalidField", Family: p.Family, Field: "family has no chunk framing"}
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, append(header, body...))
	}
	return frames, nil
}

func splitBody(bytes []byte, max int) [][]byte {
	if len(bytes) == 0 {
		return nil
	}
	var out [][]byte
	for offset := 0; offset < len(bytes); offset += max {
		end := offset + max
		if end > len(bytes) {
			end = len(bytes)
		}
		out = append(out, bytes[offset:end])
	}
	return out
}

// TransferSession tracks progress of one in-flight upload.
type TransferSession struct {
	Family Family
	frames [][]byte
	cursor int
	state  TransferState
	err    error
}

// TransferCoordinator serializes uploads to a single device: only one
// TransferSession may be in flight at a time, matching the device's own
// single-outstanding-transfer firmware behaviour (§4.6 "BusyError").
type TransferCoordinator struct {
	transport Transport
	timeouts  Timeouts
	active    bool
}

func NewTransferCoordinator(transport Transport, timeouts Timeouts) *TransferCoordinator {
	return &TransferCoordinator{transport: transport, timeouts: timeouts}
}

// Send drives one upload end to end: frame, write each fragment with
// per-family pacing, and wait for the device's ack between logical
// chunks (§4.6 steps 3-7). acks delivers decoded NotifyEvents for the
// peripheral's notify characteristic; Send consumes exactly the events
// relevant to this family and ignores the rest.
func (c *TransferCoordinator) Send(ctx context.Context, peripheralID string, writeChar uuid.UUID, acks <-chan NotifyEvent, payload LogicalPayload, negotiatedMTU int, extraHeader []byte) error {
	if c.active {
		return &TransferError{Kind: "Busy", Family: payload.Family}
	}
	c.active = true
	defer func() { c.active = false }()

	timing := c.timeouts.forFamily(payload.Family)
	fragSize := fragmentSizeFor(negotiatedMTU)

	log.Debug(fmt.Sprintf("transfer: starting %s upload of %d bytes to %s", payload.Family, payload.Total, peripheralID))

	if err := c.runPreamble(ctx, peripheralID, writeChar, acks, payload, fragSize, timing); err != nil {
		log.Error(fmt.Sprintf("transfer: %s preamble failed: %v", payload.Family, err))
		return err
	}

	frames, err := buildFrames(payload, extraHeader)
	if err != nil {
		return err
	}

	session := &TransferSession{Family: payload.Family, frames: frames, state: StateSending}

	for session.cursor = 0; session.cursor < len(session.frames); session.cursor++ {
		frame := session.frames[session.cursor]
		if err := writeFragmented(ctx, c.transport, peripheralID, writeChar, frame, fragSize, timing.Pacing); err != nil {
			session.state = StateFailed
			session.err = err
			log.Error(fmt.Sprintf("transfer: %s write failed at chunk %d: %v", payload.Family, session.cursor, err))
			return err
		}

		// Every chunk, OTA packages included, waits for one ack;
		// waitForAck accepts NextPackage, Finished or OtaSetupAck for any
		// chunk, so a final chunk acked with Finished completes the upload.
		session.state = StateAwaitingAck
		if err := waitForAck(ctx, acks, payload.Family, session.cursor, timing.AckTimeout); err != nil {
			session.state = StateFailed
			session.err = err
			log.Error(fmt.Sprintf("transfer: %s ack failed at chunk %d: %v", payload.Family, session.cursor, err))
			return err
		}
		session.state = StateSending
	}

	log.Notice(fmt.Sprintf("transfer: %s upload to %s complete (%d chunks)", payload.Family, peripheralID, len(session.frames)))

	session.state = StateComplete
	return nil
}

// runPreamble sends the handshake that must complete before a
// family's chunked payload goes out: DIY's mode switch, schedule's
// setup/master-switch pair, and OTA's step-1 setup frame (§4.6 "DIY",
// "Timer/Schedule" and "OTA" specifics). Every other family has no
// preamble and returns immediately.
func (c *TransferCoordinator) runPreamble(ctx context.Context, peripheralID string, writeChar uuid.UUID, acks <-chan NotifyEvent, payload LogicalPayload, fragSize int, timing FamilyTiming) error {
	switch payload.Family {
	case FamilyDIY:
		log.Debug("transfer: sending DIY mode-switch frame")
		frame, err := EncodeDIYModeSwitch()
		if err != nil {
			return err
		}
		if err := writeFragmented(ctx, c.transport, peripheralID, writeChar, frame, fragSize, timing.Pacing); err != nil {
			return err
		}
		_, err = waitForHandshake(ctx, acks, FamilyDIY, []string{"NextPackage", "Finished"}, timing.AckTimeout)
		return err

	case FamilySchedule:
		log.Debug("transfer: running schedule setup/master-switch handshake")
		setup, err := EncodeScheduleSetup(payload.ScheduleSlot)
		if err != nil {
			return err
		}
		if err := writeFragmented(ctx, c.transport, peripheralID, writeChar, setup, fragSize, timing.Pacing); err != nil {
			return err
		}
		if _, err := waitForHandshake(ctx, acks, FamilySchedule, []string{"ScheduleSetup"}, timing.AckTimeout); err != nil {
			return err
		}
		masterSwitch, err := EncodeScheduleMasterSwitch(true)
		if err != nil {
			return err
		}
		if err := writeFragmented(ctx, c.transport, peripheralID, writeChar, masterSwitch, fragSize, timing.Pacing); err != nil {
			return err
		}
		_, err = waitForHandshake(ctx, acks, FamilySchedule, []string{"ScheduleMasterSwitch"}, timing.AckTimeout)
		return err

	case FamilyOTA:
		pkgCount := (len(payload.Bytes) + maxChunkBody - 1) / maxChunkBody
		if pkgCount == 0 {
			pkgCount = 1
		}
		log.Debug("transfer: sending OTA step-1 setup frame")
		step1 := EncodeOTAStep1(payload.OTAType, byte(pkgCount), payload.CRC32, payload.Total)
		if err := writeFragmented(ctx, c.transport, peripheralID, writeChar, step1, fragSize, timing.Pacing); err != nil {
			return err
		}
		ev, err := waitForHandshake(ctx, acks, FamilyOTA, []string{"OtaSetupAck"}, timing.AckTimeout)
		if err != nil {
			return err
		}
		if !ev.OtaAccepted {
			return &TransferError{Kind: "DeviceReportedError", Family: FamilyOTA}
		}
		return nil
	}
	return nil
}

// waitForHandshake blocks for a specific set of NotifyEvent kinds on
// family, used by the preamble steps above rather than the per-chunk
// waitForAck.
func waitForHandshake(ctx context.Context, acks <-chan NotifyEvent, family Family, kinds []string, timeout time.Duration) (NotifyEvent, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case ev, ok := <-acks:
			if !ok {
				return NotifyEvent{}, ErrDisconnected
			}
			if ev.Family != family {
				continue
			}
			for _, k := range kinds {
				if ev.Kind == k {
					return ev, nil
				}
			}
			if ev.Kind == "TransferError" {
				return NotifyEvent{}, &TransferError{Kind: "DeviceReportedError", Family: family, Code: ev.ErrorCode}
			}
		case <-deadline.C:
			return NotifyEvent{}, &TransferError{Kind: "AckTimeout", Family: family, ChunkIndex: -1}
		case <-ctx.Done():
			return NotifyEvent{}, &TransferError{Kind: "Cancelled", Family: family, ChunkIndex: -1}
		}
	}
}

func writeFragmented(ctx context.Context, transport Transport, peripheralID string, writeChar uuid.UUID, frame []byte, fragSize int, pacing time.Duration) error {
	for offset := 0; offset < len(frame); offset += fragSize {
		end := offset + fragSize
		if end > len(frame) {
			end = len(frame)
		}
		if err := transport.Write(ctx, peripheralID, writeChar, frame[offset:end], false); err != nil {
			return ErrWriteFailed
		}
		if end < len(frame) {
			select {
			case <-time.After(pacing):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// waitForAck blocks until the device reports progress on the chunk just
// written, a transfer error, or the ack timeout/cancellation fires
// (§4.6 step 7, §7 "Transfer errors").
func waitForAck(ctx context.Context, acks <-chan NotifyEvent, family Family, chunkIndex int, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case ev, ok := <-acks:
			if !ok {
				return ErrDisconnected
			}
			if ev.Family != family {
				continue
			}
			switch ev.Kind {
			case "NextPackage", "Finished", "OtaSetupAck":
				return nil
			case "TransferError":
				return &TransferError{Kind: "DeviceReportedError", Family: family, ChunkIndex: chunkIndex, Code: ev.ErrorCode}
			}
		case <-deadline.C:
			return &TransferError{Kind: "AckTimeout", Family: family, ChunkIndex: chunkIndex}
		case <-ctx.Done():
			return &TransferError{Kind: "Cancelled", Family: family, ChunkIndex: chunkIndex}
		}
	}
}
