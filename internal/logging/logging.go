// Package logging holds the process-wide CLI logger.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reoring/skemaforge/errors"
)

// L is the global logger. It discards everything until Init is called.
var L *zap.SugaredLogger

func init() {
	L = zap.NewNop().Sugar()
}

// Init replaces L. jsonOutput selects the production JSON encoder; otherwise
// a console encoder without timestamps writes to stderr.
func Init(level string, jsonOutput bool) error {
	return InitTo(os.Stderr, level, jsonOutput)
}

// InitTo is Init with an explicit destination.
func InitTo(w io.Writer, level string, jsonOutput bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "log level %q", level)
	}

	var enc zapcore.Encoder
	if jsonOutput {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	L = zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl)).Sugar()
	return nil
}

// Sync flushes buffered entries.
func Sync() {
	_ = L.Sync()
}
