package nwpwifi

import (
	"context"
	"log/slog"
)

const levelTrace slog.Level = slog.LevelDebug - 1

func (m *Manager) logerr(msg string, attrs ...slog.Attr) {
	m.logattrs(slog.LevelError, msg, attrs...)
}

func (m *Manager) warn(msg string, attrs ...slog.Attr) {
	m.logattrs(slog.LevelWarn, msg, attrs...)
}

func (m *Manager) info(msg string, attrs ...slog.Attr) {
	m.logattrs(slog.LevelInfo, msg, attrs...)
}

func (m *Manager) debug(msg string, attrs ...slog.Attr) {
	m.logattrs(slog.LevelDebug, msg, attrs...)
}

func (m *Manager) trace(msg string, attrs ...slog.Attr) {
	m.logattrs(levelTrace, msg, attrs...)
}

func (m *Manager) logattrs(level slog.Level, msg string, attrs ...slog.Attr) {
	if m.logger == nil {
		return
	}
	m.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func errAttr(err error) slog.Attr { return slog.String("err", err.Error()) }
