// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"fmt"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/ManuGH/timeapi/internal/log"
)

var libraryLoggerOnce sync.Once

// installLibraryLogger routes the client library's own diagnostics into
// zerolog. Its loggers are package globals, so this runs once.
func installLibraryLogger() {
	libraryLoggerOnce.Do(func() {
		l := log.WithComponent("paho")
		mqtt.ERROR = libLogger{l: l, level: zerolog.ErrorLevel}
		mqtt.CRITICAL = libLogger{l: l, level: zerolog.ErrorLevel}
		mqtt.WARN = libLogger{l: l, level: zerolog.WarnLevel}
	})
}

type libLogger struct {
	l     zerolog.Logger
	level zerolog.Level
}

func (p libLogger) Println(v ...any) {
	p.l.WithLevel(p.level).Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (p libLogger) Printf(format string, v ...any) {
	p.l.WithLevel(p.level).Msgf(format, v...)
}
