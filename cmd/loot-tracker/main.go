package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"loot-tracker/internal/app"
	"loot-tracker/internal/display"
	"loot-tracker/internal/ipc"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
	"loot-tracker/pkg/config"
	"loot-tracker/pkg/logger"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	start := flag.Bool("start", false, "start tracking immediately")
	send := flag.String("send", "", `send a command to the running tracker, e.g. "stop" or "mode drop"`)
	showLoot := flag.Bool("showLoot", false, "show the loot menu of the running tracker")
	flag.Parse()

	// Setup logging level
	logLevel := zerolog.InfoLevel
	if *debug {
		logLevel = zerolog.DebugLevel
	}

	// Initialize logger first for early logging
	log, err := logger.NewLogger(
		logger.WithConsole(),
		logger.WithLevel(logLevel),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Debug("Loading configuration", "provided_path", *configPath)
	cfg, err := config.FindConfig(*configPath, log)
	if err != nil {
		log.Error("Failed to load configuration", err, "provided_path", *configPath)
		os.Exit(1)
	}
	if !*debug {
		if level, err := zerolog.ParseLevel(cfg.GetLogLevel()); err == nil {
			log.SetLevel(level)
		}
	}

	switch {
	case *send != "":
		os.Exit(sendCommand(cfg.GetSocketPath(), *send))
	case *showLoot:
		if err := showLootMenu(cfg.GetSocketPath(), log); err != nil {
			log.Error("Failed to show loot", err)
			os.Exit(1)
		}
		return
	}

	log.Info("Starting Loot Tracker",
		"version", "1.0.0",
		"pid", os.Getpid(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
		"debug", *debug)

	lt, err := app.NewLootTracker(cfg, log, *debug)
	if err != nil {
		log.Fatal("Failed to create Loot Tracker", err)
	}
	defer lt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := lt.Run(ctx, *start); err != nil {
		log.Error("Application error", err)
	}
}

func sendCommand(socketPath, line string) int {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		fmt.Fprintln(os.Stderr, "empty command")
		return 2
	}
	resp, err := ipc.SendCommand(socketPath, fields[0], fields[1:]...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	fmt.Println(resp.Message)
	if resp.Session != nil {
		fmt.Println(display.FormatHeader(*resp.Session, resp.Loot, time.Now()))
	}
	for _, e := range resp.Loot {
		fmt.Println(display.FormatEntry(e))
	}
	if resp.Status != "success" {
		return 1
	}
	return 0
}

func showLootMenu(socketPath string, log *logger.Logger) error {
	resp, err := ipc.SendCommand(socketPath, "snapshot")
	if err != nil {
		return err
	}
	var st tracker.Status
	if resp.Session != nil {
		st = *resp.Session
	}
	header := display.FormatHeader(st, resp.Loot, time.Now())

	command := func(name string, args ...string) error {
		r, err := ipc.SendCommand(socketPath, name, args...)
		if err != nil {
			return err
		}
		if r.Status != "success" {
			return fmt.Errorf("%s: %s", name, r.Message)
		}
		log.Info("Command sent", "command", name, "message", r.Message)
		return nil
	}

	menu, err := display.NewLootMenu(display.Handlers{
		Toggle: func(string) error {
			if st.State == tracker.Started {
				return command("stop")
			}
			return command("start")
		},
		Reset: func(string) error {
			return command("reset")
		},
		Mode: func(string) error {
			next := loot.DropLog
			if st.Mode == loot.DropLog {
				next = loot.ChatLog
			}
			return command("mode", next.String())
		},
	}, log)
	if err != nil {
		log.Warn("Falling back to terminal output", "error", err)
		return display.WriteTable(os.Stdout, header, resp.Loot)
	}
	return menu.Show(header, resp.Loot)
}
