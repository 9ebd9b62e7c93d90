// Package logging builds the process-wide zap logger. Output always goes to
// stdout as JSON; when a Logstash address is configured the same lines are
// mirrored there over TCP.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs the logger for a named process ("api", "worker"). The
// returned cleanup flushes buffers and tears down the Logstash connection.
func New(process, logstashAddr string) (*zap.Logger, func(), error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}

	var lw *LogstashWriter
	if logstashAddr != "" {
		writer, err := NewLogstashWriter(logstashAddr)
		if err != nil {
			return nil, nil, err
		}
		lw = writer
		syncers = append(syncers, lw)
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), zapcore.InfoLevel)
	logger := zap.New(core).With(zap.String("process", process))

	cleanup := func() {
		_ = logger.Sync()
		if lw != nil {
			_ = lw.Close()
		}
	}
	return logger, cleanup, nil
}
