/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log builds the slog loggers used across the application.
// Loggers are constructed from Options and handed to the components that
// need them; there is no package-level default.
//
// A logger fans out to an append-only rotating log file and, optionally, a
// human-friendly console sink on stderr.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"libinventory/internal/version"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
//   - Level: debug|info|warn|error (default info)
//   - Format: text|json, applies to the file sink (default text)
//   - File: path of the log file; empty disables the file sink
//   - Console: writer for the console sink; nil disables it
type Options struct {
	Level     string
	Format    string
	AddSource bool
	File      string
	Console   io.Writer
}

// New builds a logger from opts. The returned close function releases the
// log file, if one was opened.
func New(opts Options) (*slog.Logger, func() error) {
	lvl := parseLevel(opts.Level)
	closeFn := func() error { return nil }

	var handlers []slog.Handler
	if strings.TrimSpace(opts.File) != "" {
		w := &lj.Logger{Filename: opts.File, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}
		var fh slog.Handler
		if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
			fh = slog.NewJSONHandler(w, hopts)
		} else {
			fh = slog.NewTextHandler(w, hopts)
		}
		handlers = append(handlers, fh)
		closeFn = w.Close
	}
	if opts.Console != nil {
		handlers = append(handlers, consoleHandler(opts.Console, lvl, opts.AddSource))
	}

	var h slog.Handler
	switch len(handlers) {
	case 0:
		return Discard(), closeFn
	case 1:
		h = handlers[0]
	default:
		h = multiHandler(handlers...)
	}

	logger := slog.New(h).With(
		slog.String("app", "libinventory"),
		slog.String("ver", version.Version),
	)
	return logger, closeFn
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// WithComponent returns l with the component attribute pre-set.
func WithComponent(l *slog.Logger, name string) *slog.Logger {
	return l.With(slog.String("component", name))
}

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// consoleHandler writes colourised one-line records when w is a terminal and
// plain ones otherwise.
func consoleHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	noColor := true
	if f, ok := w.(*os.File); ok {
		if isatty.IsTerminal(f.Fd()) {
			noColor = false
			w = colorable.NewColorable(f)
		}
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		AddSource:  addSource,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// app/ver are noise on an interactive terminal
			if len(groups) == 0 && (a.Key == "app" || a.Key == "ver") {
				return slog.Attr{}
			}
			return a
		},
	})
}

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// multiHandler fans out log records to multiple handlers.
func multiHandler(handlers ...slog.Handler) slog.Handler { return &multi{hs: handlers} }

type multi struct{ hs []slog.Handler }

func (m *multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multi) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithAttrs(attrs)
	}
	return &multi{hs: res}
}

func (m *multi) WithGroup(name string) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithGroup(name)
	}
	return &multi{hs: res}
}
