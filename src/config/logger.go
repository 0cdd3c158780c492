package config

import (
	"io"
	"os"
	"path"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SupervisorLogger adapts a zerolog.Logger to the supervisor's
// Printf-style logging interface.
type SupervisorLogger struct {
	*zerolog.Logger
}

func (self *SupervisorLogger) Printf(format string, v ...interface{}) {
	self.Logger.Printf(format, v...)
}

func (self *SupervisorLogger) Println(v ...interface{}) {
	self.Logger.Print(v...)
}

type loggerConfig struct {
	console bool
	debug   bool

	// file logging via a rolling logfile, off unless UMPIRE_LOG_FILE is set
	directory  string
	filename   string
	maxSize    int // megabytes
	maxBackups int
	maxAge     int // days
}

func buildLoggerConfig(debug bool) (*loggerConfig, error) {
	conf := loggerConfig{debug: debug}

	if v, err := GetenvBool("UMPIRE_LOG_CONSOLE"); err != nil {
		return nil, err
	} else if v != nil {
		conf.console = *v
	}

	if v, err := GetenvBool("UMPIRE_LOG_FILE"); err != nil {
		return nil, err
	} else if v == nil || !*v {
		return &conf, nil
	}

	conf.directory = "logs"
	if v := GetenvStr("UMPIRE_LOG_DIRECTORY"); v != "" {
		conf.directory = v
	}
	conf.filename = "umpire.log"
	if v := GetenvStr("UMPIRE_LOG_FILE_NAME"); v != "" {
		conf.filename = v
	}

	for _, opt := range []struct {
		env      string
		fallback int
		into     *int
	}{
		{"UMPIRE_LOG_MAX_SIZE", 10, &conf.maxSize},
		{"UMPIRE_LOG_MAX_BACKUPS", 10, &conf.maxBackups},
		{"UMPIRE_LOG_MAX_AGE", 10, &conf.maxAge},
	} {
		if v, err := GetenvInt(opt.env); err != nil {
			return nil, err
		} else if v != nil && *v != 0 {
			*opt.into = *v
		} else {
			*opt.into = opt.fallback
		}
	}

	return &conf, nil
}

func ConfigureLogger(debug bool) *zerolog.Logger {
	config, err := buildLoggerConfig(debug)
	if err != nil {
		log.Fatal().Err(err).Msg("can't get logger config")
		return nil
	}

	var writers []io.Writer
	if config.console {
		writers = append(writers, zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = time.RFC3339
		}))
	} else {
		writers = append(writers, os.Stderr)
	}
	if config.filename != "" {
		writers = append(writers, newRollingFile(config))
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger()

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	logger.Debug().
		Bool("console", config.console).
		Bool("debug", config.debug).
		Str("logDirectory", config.directory).
		Str("fileName", config.filename).
		Int("maxSizeMB", config.maxSize).
		Int("maxBackups", config.maxBackups).
		Int("maxAgeInDays", config.maxAge).
		Msg("logging configured")

	return &logger
}

func newRollingFile(config *loggerConfig) io.Writer {
	if err := os.MkdirAll(config.directory, 0o744); err != nil {
		log.Fatal().Err(err).Str("path", config.directory).Msg("can't create log directory")
		return nil
	}

	return &lumberjack.Logger{
		Filename:   path.Join(config.directory, config.filename),
		MaxBackups: config.maxBackups,
		MaxSize:    config.maxSize,
		MaxAge:     config.maxAge,
	}
}
