// Command telnetd is a small reference server built on this module's core:
// it accepts connections, wires up a handful of telopts per connection, and
// echoes received lines back. It exists to exercise the accept-loop
// supervision and per-connection logging the ambient stack calls for, not
// as a product in its own right.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/corvallis-moor/telnet"
	"github.com/corvallis-moor/telnet/telopts"
	"github.com/corvallis-moor/telnet/utils"
)

func main() {
	configPath := "telnetd.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		cancel()
	}()
	defer cancel()

	if err := serve(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// serve runs the accept loop and every spawned connection under one
// errgroup, replacing the "global active flag with a nested busy loop
// inside the accept handler" shape with cancelable supervision: closing the
// listener (on ctx.Done) unblocks Accept with an error, the accept loop
// returns that error instead of looping on it, and every in-flight
// connection goroutine is already reading under ctx and exits on its own
// when the stream ends or ctx is canceled, so nothing spins.
func serve(ctx context.Context, cfg serverConfig, logger *slog.Logger) error {
	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddress, err)
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-gctx.Done()
		return listener.Close()
	})

	group.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return err
			}

			connID := uuid.New().String()
			connLogger := logger.With("conn", connID, "remote", conn.RemoteAddr().String())

			group.Go(func() error {
				defer conn.Close()
				serveConnection(gctx, cfg, conn, connLogger)
				return nil
			})
		}
	})

	return group.Wait()
}

func serveConnection(ctx context.Context, cfg serverConfig, conn net.Conn, logger *slog.Logger) {
	logger.Info("connection accepted")
	defer logger.Info("connection closed")

	ansiConfig := cfg.AnsiConfig.toAnsiConfig()

	echoOpt := telopts.RegisterECHO(telnet.TelOptRequestRemote).(*telopts.ECHO)

	terminal, err := telnet.NewTerminal(ctx, conn, telnet.TerminalConfig{
		Side:               telnet.SideServer,
		DefaultCharsetName: "US-ASCII",
		TelOpts: []telnet.TelnetOption{
			echoOpt,
			telopts.RegisterSUPPRESSGOAHEAD(telnet.TelOptRequestLocal | telnet.TelOptRequestRemote),
			telopts.RegisterTRANSMITBINARY(telnet.TelOptAllowLocal | telnet.TelOptAllowRemote),
			telopts.RegisterNAWS(telnet.TelOptAllowRemote),
			telopts.RegisterLINEMODE(telnet.TelOptAllowRemote, telopts.LineModeEDIT|telopts.LineModeTRAPSIG),
			telopts.RegisterTTYPE(telnet.TelOptAllowRemote, nil),
			telopts.RegisterCHARSET(telnet.TelOptAllowLocal|telnet.TelOptAllowRemote, telopts.CHARSETConfig{
				AllowAnyCharset:   cfg.AllowAnyCharset,
				PreferredCharsets: cfg.PreferredCharsets,
			}),
		},
		EventHooks: telnet.EventHooks{
			EncounteredError: []telnet.ErrorHandler{
				func(t *telnet.Terminal, err error) { logger.Warn("terminal error", "error", err) },
			},
			TelOptEvent: []telnet.TelOptEventHandler{
				func(t *telnet.Terminal, event telnet.TelOptEvent) {
					if ttypeEvent, ok := event.(telopts.TTYPERemoteTerminalsUpdatedEvent); ok {
						logger.Info("remote terminal types", "terminals", ttypeEvent.RemoteTerminals)
					}
				},
			},
		},
	})
	if err != nil {
		logger.Error("failed to start terminal", "error", err)
		return
	}

	parser := telnet.NewAnsiParser(ansiConfig)
	charMode := utils.NewCharacterModeTracker(terminal)

	lineFeed := utils.NewLineFeed(terminal, echoLine(terminal, parser, echoOpt, charMode, logger),
		func(t *telnet.Terminal, data telnet.TerminalData) { t.Keyboard().LineOut(t, data) },
		utils.LineFeedConfig{})
	terminal.RegisterPrinterOutputHook(lineFeed.LineIn)

	terminal.Keyboard().WriteString(cfg.Banner)

	if err := terminal.WaitForExit(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("terminal exited with error", "error", err)
	}
}

// echoLine classifies every received line through AnsiParser before echoing
// it back, purely to demonstrate the ANSI classification pipeline end to
// end; a real server would route the received TerminalData into its own
// application state instead of re-classifying it on the way back out. Once
// the ECHO telopt has settled active, or the peer's LINEMODE has dropped
// EDIT (meaning the peer itself is echoing keystrokes character by
// character), the client owns echoing, so the classification still runs but
// the line is no longer written back.
func echoLine(t *telnet.Terminal, parser *telnet.AnsiParser, echoOpt *telopts.ECHO, charMode *utils.CharacterModeTracker, logger *slog.Logger) telnet.TerminalDataHandler {
	return func(terminal *telnet.Terminal, output telnet.TerminalData) {
		text, ok := output.(telnet.TextData)
		if !ok {
			return
		}

		var segments int
		for i := 0; i < len(text); i++ {
			produced, err := parser.Feed(text[i])
			if err != nil {
				logger.Debug("ansi parse error", "error", err)
				continue
			}
			segments += len(produced)
		}
		for range parser.Flush() {
			segments++
		}

		if echoOpt.RemoteEchoing() || charMode.IsCharacterMode() {
			return
		}

		t.Keyboard().WriteString(string(text))
		t.Keyboard().LineOut(t, telnet.ControlCodeData('\n'))
	}
}
