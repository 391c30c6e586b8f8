package utils

import (
	"context"
	"log/slog"

	"github.com/corvallis-moor/telnet"
)

const LevelNone slog.Level = -8

// DebugLogConfig controls the slog level used for each category of event a
// DebugLog subscribes to. LevelNone (-8) sits below slog.LevelDebug: a
// category set to it is still logged at that level, so it is dropped only by
// a handler whose minimum level is above -8.
type DebugLogConfig struct {
	EncounteredErrorLevel slog.Level
	PrinterOutputLevel    slog.Level
	OutboundDataLevel     slog.Level
	TelOptEventLevel      slog.Level
}

// DebugLog wires a slog.Logger up to every hook a Terminal exposes, so all
// traffic across a connection can be observed without touching the terminal's
// own processing.
type DebugLog struct {
	logger *slog.Logger
	config DebugLogConfig
}

// NewDebugLog registers a DebugLog's hooks against the given terminal and
// returns it. There is nothing further to do with the returned value unless
// you want to share its logger/config elsewhere.
func NewDebugLog(terminal *telnet.Terminal, logger *slog.Logger, config DebugLogConfig) *DebugLog {
	log := &DebugLog{logger: logger, config: config}

	terminal.RegisterEncounteredErrorHook(log.logError)
	terminal.RegisterPrinterOutputHook(log.logPrinterOutput)
	terminal.RegisterOutboundDataHook(log.logOutboundData)
	terminal.RegisterTelOptEventHook(log.logTelOptEvent)

	return log
}

func (l *DebugLog) logError(terminal *telnet.Terminal, err error) {
	l.logger.LogAttrs(context.Background(), l.config.EncounteredErrorLevel, "Encountered error", slog.Any("error", err))
}

func (l *DebugLog) logPrinterOutput(terminal *telnet.Terminal, output telnet.TerminalData) {
	l.logger.LogAttrs(context.Background(), l.config.PrinterOutputLevel, "Received data",
		slog.String("kind", terminalDataKind(output)),
		slog.String("contents", output.String()),
	)
}

func (l *DebugLog) logOutboundData(terminal *telnet.Terminal, output telnet.TerminalData) {
	l.logger.LogAttrs(context.Background(), l.config.OutboundDataLevel, "Sent data",
		slog.String("kind", terminalDataKind(output)),
		slog.String("contents", output.String()),
	)
}

func terminalDataKind(data telnet.TerminalData) string {
	switch data.(type) {
	case telnet.TextData:
		return "text"
	case telnet.ControlCodeData:
		return "control"
	case telnet.SegmentData:
		return "segment"
	case telnet.ErrorData:
		return "error"
	default:
		return "unknown"
	}
}

func (l *DebugLog) logTelOptEvent(terminal *telnet.Terminal, event telnet.TelOptEvent) {
	switch typed := event.(type) {
	case telnet.TelOptStateChangeEvent:
		l.logger.LogAttrs(context.Background(), l.config.TelOptEventLevel, "TelOpt state change",
			slog.String("option", typed.TelnetOption.String()),
			slog.String("side", typed.Side.String()),
			slog.String("oldState", typed.OldState.String()),
			slog.String("newState", typed.NewState.String()),
		)
	case telnet.TelOptEventData:
		attrs := []slog.Attr{slog.String("option", typed.Option.String())}

		name, payload, err := typed.Option.EventString(typed)
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		} else {
			attrs = append(attrs, slog.String("event", name))
			if payload != "" {
				attrs = append(attrs, slog.String("payload", payload))
			}
		}

		l.logger.LogAttrs(context.Background(), l.config.TelOptEventLevel, "TelOpt event", attrs...)
	}
}
