package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/atotto/clipboard"
	"github.com/urfave/cli"

	"github.com/underwhelmingperformance/idm"
)

// errNoTransport is returned by every command that would need a live
// BLE radio: this binary wires idm's encoders/decoders directly, and
// leaves the concrete scan/connect loop to a caller-supplied
// idm.Transport (internal/bletransport.GattTransport on Linux) rather
// than hardcoding one into the CLI.
var errNoTransport = fmt.Errorf("no transport backend configured for this command")

func scanCommand(c *cli.Context) error {
	blocklist := c.StringSlice("blocklist")
	fmt.Println(idm.Cyan("scanning... (ctrl-c to stop)"))

	ctx := context.Background()
	if d := c.Duration("timeout"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	_ = ctx
	return fmt.Errorf("%w; pass a transport to idm.ScanLoop to drive a real scan, blocklist=%v", errNoTransport, blocklist)
}

func controlPowerCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: idm control power <off|on>", 1)
	}
	on := c.Args().Get(0) == "on"
	frame, err := idm.EncodePower(on)
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func controlBrightnessCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: idm control brightness <0..100>", 1)
	}
	percent, err := strconv.Atoi(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError("brightness must be an integer", 1)
	}
	frame, err := idm.EncodeBrightness(percent)
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func controlSyncTimeCommand(c *cli.Context) error {
	t := time.Now()
	if unix := c.Int64("unix"); unix != 0 {
		t = time.Unix(unix, 0)
	}
	frame, err := idm.EncodeSyncTime(t)
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func controlColourCommand(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.NewExitError("usage: idm control colour <r> <g> <b>", 1)
	}
	r, g, b, err := parseRGB(c.Args())
	if err != nil {
		return err
	}
	frame, err := idm.EncodeColour(r, g, b)
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func controlTextCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: idm control text <text>", 1)
	}
	return fmt.Errorf("%w; building a text LogicalPayload needs a resolved DeviceRoutingProfile from idm.Open", errNoTransport)
}

func controlClockCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: idm control clock <style>", 1)
	}
	style, err := strconv.Atoi(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError("style must be an integer", 1)
	}
	frame, err := idm.EncodeClock(idm.ClockStyle(style), c.Bool("24h"))
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func controlCountdownCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: idm control countdown <seconds> <start|pause>", 1)
	}
	seconds, err := strconv.Atoi(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError("seconds must be an integer", 1)
	}
	frame, err := idm.EncodeCountdown(time.Duration(seconds)*time.Second, c.Args().Get(1) == "start")
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func controlChronographCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: idm control chronograph <start|stop|reset>", 1)
	}
	var state idm.ChronographState
	switch c.Args().Get(0) {
	case "start":
		state = idm.ChronographStart
	case "reset":
		state = idm.ChronographReset
	default:
		state = idm.ChronographStop
	}
	frame, err := idm.EncodeChronograph(state)
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func controlScoreboardCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: idm control scoreboard <left> <right>", 1)
	}
	left, err := strconv.Atoi(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError("left score must be an integer", 1)
	}
	right, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return cli.NewExitError("right score must be an integer", 1)
	}
	frame, err := idm.EncodeScoreboard(byte(left), byte(right))
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func controlJointModeCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: idm control joint-mode <mode>", 1)
	}
	mode, err := strconv.Atoi(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError("mode must be an integer", 1)
	}
	frame, err := idm.EncodeJointMode(mode)
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func controlScreenLightCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: idm control screen-light <query|seconds>", 1)
	}
	if c.Args().Get(0) == "query" {
		frame, err := idm.EncodeScreenLightQuery()
		if err != nil {
			return err
		}
		return printFrame(frame)
	}
	seconds, err := strconv.Atoi(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError("expected 'query' or a number of seconds", 1)
	}
	frame, err := idm.EncodeScreenLightSet(byte(seconds))
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func controlLedInfoCommand(c *cli.Context) error {
	frame, err := idm.EncodeLedInfoQuery()
	if err != nil {
		return err
	}
	return printFrame(frame)
}

func uploadTextCommand(c *cli.Context) error {
	return fmt.Errorf("%w", errNoTransport)
}
func uploadGifCommand(c *cli.Context) error   { return fmt.Errorf("%w", errNoTransport) }
func uploadImageCommand(c *cli.Context) error { return fmt.Errorf("%w", errNoTransport) }
func uploadDiyCommand(c *cli.Context) error   { return fmt.Errorf("%w", errNoTransport) }

func scheduleSetupCommand(c *cli.Context) error        { return fmt.Errorf("%w", errNoTransport) }
func scheduleMasterSwitchCommand(c *cli.Context) error { return fmt.Errorf("%w", errNoTransport) }
func scheduleListCommand(c *cli.Context) error         { return fmt.Errorf("%w", errNoTransport) }

func otaPushCommand(c *cli.Context) error { return fmt.Errorf("%w", errNoTransport) }

func deviceCopyIDCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: idm device copy-id <mac>", 1)
	}
	mac := c.Args().Get(0)
	if err := clipboard.WriteAll(mac); err != nil {
		return err
	}
	fmt.Println(idm.Green("copied " + mac + " to the clipboard"))
	return nil
}

func printFrame(frame []byte) error {
	fmt.Printf("% x\n", frame)
	return nil
}

func parseRGB(args cli.Args) (r, g, b byte, err error) {
	vals := make([]byte, 3)
	for i := 0; i < 3; i++ {
		v, perr := strconv.Atoi(args.Get(i))
		if perr != nil || v < 0 || v > 255 {
			err = cli.NewExitError("colour components must be integers 0..255", 1)
			return
		}
		vals[i] = byte(v)
	}
	return vals[0], vals[1], vals[2], nil
}
