package main

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"github.com/underwhelmingperformance/idm"
)

var log *logging.Logger

func printFatal(msg string, args ...interface{}) {
	printErr(msg, args...)
	os.Exit(1)
}

func printErr(msg string, args ...interface{}) {
	os.Stderr.WriteString(idm.Red(fmt.Sprintf(msg, args...)) + "\n")
}

func main() {
	log = idm.SetupLogging("idm", logging.NOTICE, false)

	app := cli.NewApp()
	app.Name = "idm"
	app.Usage = "control BLE LED dot-matrix displays"
	app.Version = "0.1.0"
	app.Commands = []cli.Command{
		{
			Name:   "scan",
			Usage:  "idm scan -- list nearby devices and their resolved profile",
			Action: scanCommand,
			Flags: []cli.Flag{
				cli.StringSliceFlag{Name: "blocklist", Usage: "cid/pid entries to ignore, as 000{cid}0{pid}"},
				cli.DurationFlag{Name: "timeout", Value: 0, Usage: "stop scanning after this long (0 = run until interrupted)"},
			},
		},
		{
			Name:  "control",
			Usage: "idm control <subcommand> -- send a short control frame",
			Subcommands: []cli.Command{
				{Name: "power", Usage: "idm control power <off|on>", Action: controlPowerCommand},
				{Name: "brightness", Usage: "idm control brightness <0..100>", Action: controlBrightnessCommand},
				{Name: "sync-time", Usage: "idm control sync-time [--unix <ts>]", Action: controlSyncTimeCommand,
					Flags: []cli.Flag{cli.Int64Flag{Name: "unix", Usage: "unix timestamp to sync to instead of now"}}},
				{Name: "colour", Usage: "idm control colour <r> <g> <b>", Action: controlColourCommand},
				{Name: "text", Usage: "idm control text <text>", Action: controlTextCommand,
					Flags: []cli.Flag{cli.IntFlag{Name: "mode", Value: 0}}},
				{Name: "clock", Usage: "idm control clock <style> [--24h]", Action: controlClockCommand,
					Flags: []cli.Flag{cli.BoolFlag{Name: "24h"}}},
				{Name: "countdown", Usage: "idm control countdown <seconds> <start|pause>", Action: controlCountdownCommand},
				{Name: "chronograph", Usage: "idm control chronograph <start|stop|reset>", Action: controlChronographCommand},
				{Name: "scoreboard", Usage: "idm control scoreboard <left> <right>", Action: controlScoreboardCommand},
				{Name: "joint-mode", Usage: "idm control joint-mode <mode>", Action: controlJointModeCommand},
				{Name: "screen-light", Usage: "idm control screen-light <query|seconds>", Action: controlScreenLightCommand},
				{Name: "led-info", Usage: "idm control led-info -- query firmware/panel info", Action: controlLedInfoCommand},
			},
		},
		{
			Name:  "upload",
			Usage: "idm upload <subcommand> -- upload media to the panel",
			Subcommands: []cli.Command{
				{Name: "text", Usage: "idm upload text <text>", Action: uploadTextCommand},
				{Name: "gif", Usage: "idm upload gif <path>", Action: uploadGifCommand},
				{Name: "image", Usage: "idm upload image <path>", Action: uploadImageCommand},
				{Name: "diy", Usage: "idm upload diy <path>", Action: uploadDiyCommand},
			},
		},
		{
			Name:  "schedule",
			Usage: "idm schedule <subcommand> -- manage scheduled programs",
			Subcommands: []cli.Command{
				{Name: "setup", Usage: "idm schedule setup <slot> <text>", Action: scheduleSetupCommand},
				{Name: "master-switch", Usage: "idm schedule master-switch <off|on>", Action: scheduleMasterSwitchCommand},
				{Name: "list", Usage: "idm schedule list", Action: scheduleListCommand},
			},
		},
		{
			Name:  "ota",
			Usage: "idm ota <subcommand> -- firmware update",
			Subcommands: []cli.Command{
				{Name: "push", Usage: "idm ota push <path>", Action: otaPushCommand},
			},
		},
		{
			Name:  "device",
			Usage: "idm device <subcommand> -- device maintenance",
			Subcommands: []cli.Command{
				{Name: "scan", Usage: "idm device scan -- alias of top-level scan", Action: scanCommand},
				{Name: "copy-id", Usage: "idm device copy-id <mac> -- copy a device MAC to the clipboard", Action: deviceCopyIDCommand},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		printFatal(err.Error())
	}
}
