// Command rollen is a headless client for the rollen streaming backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/llehouerou/rollen/internal/config"
	"github.com/llehouerou/rollen/internal/logging"
	nativeerr "github.com/llehouerou/rollen/internal/stderr"
)

func main() {
	os.Exit(start())
}

func start() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Native audio libraries write to fd 2; keep them out of the output.
	var errOut io.Writer = os.Stderr
	var native <-chan string
	if capture, err := nativeerr.Start(); err == nil {
		errOut = capture.Original
		native = capture.Lines()
		defer capture.Stop()
	}

	return run(ctx, os.Args[1:], os.Stdout, errOut, native)
}

// run executes one command. native carries captured fd 2 output and may
// be nil.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, native <-chan string) int {
	fs := flag.NewFlagSet("rollen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", "", "backend URL (overrides server.url)")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { usage(fs.Output(), fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "rollen: load config: %v\n", err)
		return 1
	}
	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log := logging.Setup(stderr, level)
	nativeerr.Forward(native, logging.Component(log, "audio-native"))
	if *server != "" {
		cfg.Server.URL = *server
	}

	cmd, ok := lookupCommand(fs.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "rollen: unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}
	cmdArgs := fs.Args()[1:]
	if len(cmdArgs) < cmd.minArgs {
		fmt.Fprintf(stderr, "usage: rollen %s %s\n", cmd.name, cmd.args)
		return 2
	}

	if !cfg.HasServer() {
		fmt.Fprintln(stderr, "rollen: no server configured (set server.url or ROLLEN_SERVER__URL)")
		return 1
	}

	a, err := newApp(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize")
		return 1
	}
	defer a.Close()

	if err := cmd.run(ctx, a, cmdArgs, stdout); err != nil {
		fmt.Fprintf(stderr, "rollen: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: rollen [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-16s %-24s %s\n", c.name, c.args, c.help)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fs.PrintDefaults()
}
