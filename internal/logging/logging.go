// Copyright 2024 The Coupons Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// SimpleHandler writes one "LEVEL: message key=value" line per record. Groups are flattened into dotted keys.
type SimpleHandler struct {
	Writer io.Writer
	Level  slog.Leveler

	mu     *sync.Mutex
	attrs  []slog.Attr
	prefix string
}

// NewSimpleHandler returns a handler writing to w at the given level.
func NewSimpleHandler(w io.Writer, level slog.Leveler) *SimpleHandler {
	return &SimpleHandler{Writer: w, Level: level, mu: new(sync.Mutex)}
}

// Configure installs a SimpleHandler as the default slog logger. Verbose lowers the level to debug, otherwise only
// warnings and errors are shown so the launcher stays out of the way of the child's output.
func Configure(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(NewSimpleHandler(w, level))
	slog.SetDefault(logger)
	return logger
}

func (h *SimpleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.Level.Level()
}

func (h *SimpleHandler) Handle(ctx context.Context, record slog.Record) error {
	sb := new(strings.Builder)
	sb.WriteString(record.Level.String())
	sb.WriteString(": ")
	sb.WriteString(record.Message)
	for _, a := range h.attrs {
		writeAttr(sb, "", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		writeAttr(sb, h.prefix, a)
		return true
	})
	sb.WriteByte('\n')

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}
	_, err := io.WriteString(h.Writer, sb.String())
	return err
}

func (h *SimpleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := h.clone()
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		out.attrs = append(out.attrs, a)
	}
	return out
}

func (h *SimpleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	out := h.clone()
	out.prefix = h.prefix + name + "."
	return out
}

func (h *SimpleHandler) clone() *SimpleHandler {
	out := *h
	out.attrs = append([]slog.Attr(nil), h.attrs...)
	return &out
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, p, ga)
		}
		return
	}
	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		v = fmt.Sprintf("%q", v)
	}
	fmt.Fprintf(sb, " %s%s=%s", prefix, a.Key, v)
}

var _ slog.Handler = (*SimpleHandler)(nil)
