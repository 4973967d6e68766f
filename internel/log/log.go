package log

import "go.uber.org/zap"

// Log is replaced by InitLogger. Until then everything is discarded.
var Log = zap.NewNop().Sugar()

func InitLogger(debug bool) {

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level.SetLevel(zap.DebugLevel)
	}
	logger, err := zap.Config{
		Level:            level,
		Development:      debug,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}.Build()

	if err != nil {
		panic(err)
	}
	Log = logger.Sugar()
}

func Sync() {
	_ = Log.Sync()
}
