package utilities

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	infoLog  = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime)
	warnLog  = log.New(os.Stdout, "WARNING: ", log.Ldate|log.Ltime)
	errorLog = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime)
	debugLog = log.New(io.Discard, "DEBUG: ", log.Ldate|log.Ltime)
	logMutex sync.Mutex
)

// LogOptions controls where log files go and how they rotate.
type LogOptions struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Debug      bool
}

// SetupLogging sends each level to stdout/stderr and to its own rotating file.
func SetupLogging(opts LogOptions) error {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	infoWriter := io.MultiWriter(os.Stdout, rotatingFile(opts, "info.log"))
	warnWriter := io.MultiWriter(os.Stdout, rotatingFile(opts, "warn.log"))
	errorWriter := io.MultiWriter(os.Stderr, rotatingFile(opts, "error.log"))

	logMutex.Lock()
	defer logMutex.Unlock()

	infoLog = log.New(infoWriter, "INFO: ", log.Ldate|log.Ltime)
	warnLog = log.New(warnWriter, "WARNING: ", log.Ldate|log.Ltime)
	errorLog = log.New(errorWriter, "ERROR: ", log.Ldate|log.Ltime)
	if opts.Debug {
		debugLog = log.New(infoWriter, "DEBUG: ", log.Ldate|log.Ltime)
	} else {
		debugLog = log.New(io.Discard, "DEBUG: ", log.Ldate|log.Ltime)
	}

	// Override Go's default log
	log.SetOutput(infoWriter)
	return nil
}

// SetOutput points every level at w. Used by tests.
func SetOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	infoLog.SetOutput(w)
	warnLog.SetOutput(w)
	errorLog.SetOutput(w)
	debugLog.SetOutput(w)
}

func rotatingFile(opts LogOptions, name string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, name),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
}

func getCallerInfo() string {
	pc, _, _, ok := runtime.Caller(3)
	if !ok {
		return "unknown"
	}
	name := runtime.FuncForPC(pc).Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func Log(level string, format string, v ...interface{}) {
	logMutex.Lock()
	defer logMutex.Unlock()

	message := fmt.Sprintf(format, v...)
	logEntry := fmt.Sprintf("[%s] %s", getCallerInfo(), message)

	switch level {
	case "INFO":
		infoLog.Println(logEntry)
	case "WARNING":
		warnLog.Println(logEntry)
	case "ERROR":
		errorLog.Println(logEntry)
	case "DEBUG":
		debugLog.Println(logEntry)
	default:
		infoLog.Println(logEntry)
	}
}

func Info(format string, v ...interface{}) {
	Log("INFO", format, v...)
}

func Warn(format string, v ...interface{}) {
	Log("WARNING", format, v...)
}

func Error(format string, v ...interface{}) {
	Log("ERROR", format, v...)
}

func Debug(format string, v ...interface{}) {
	Log("DEBUG", format, v...)
}
