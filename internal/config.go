package internal

import "time"

// Config is shared by the main binary and the read-only viewer.
type Config struct {
	BufferSize        int           `env:"BUFFER_SIZE,required=true"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,required=true"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,required=true"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	DebugPort         int           `env:"DEBUG_PORT,required=true"`
	MaxImageWidth     int           `env:"MAX_IMAGE_WIDTH,default=800"`
	MaxImageHeight    int           `env:"MAX_IMAGE_HEIGHT,default=600"`
	ImageQuality      int           `env:"IMAGE_QUALITY,default=70"`
}
