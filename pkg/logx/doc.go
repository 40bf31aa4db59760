// Package logx is a thin structured-logging facade over zerolog.
//
// It exists so the rest of the codebase can log through a stable, minimal API
// (Logger + Field constructors) while sink wiring (console, file) stays in one
// place. The zero Logger is a no-op, which keeps tests quiet by default.
package logx
