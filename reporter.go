// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package blogdl

import (
	"fmt"
	"log/slog"
)

// Reporter is the one-way progress notification sink exposed to the UI
// layer. Implementations must never block the caller; the engine does not
// depend on the reports being consumed.
type Reporter interface {
	Report(format string, args ...any)
}

type discard struct{}

func (discard) Report(string, ...any) {}

// Discard returns a Reporter that drops all notifications.
func Discard() Reporter {
	return discard{}
}

type logReporter struct {
	logger *slog.Logger
}

func (l logReporter) Report(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

// LogReporter forwards notifications to the supplied slog logger at info
// level.
func LogReporter(logger *slog.Logger) Reporter {
	return logReporter{logger: logger}
}

type chanReporter struct {
	ch chan<- string
}

func (c chanReporter) Report(format string, args ...any) {
	select {
	case c.ch <- fmt.Sprintf(format, args...):
	default:
	}
}

// ChanReporter sends formatted notifications over ch, dropping them when
// the channel is full.
func ChanReporter(ch chan<- string) Reporter {
	return chanReporter{ch: ch}
}
