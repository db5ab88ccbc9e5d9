package debug

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vuxuanquyet204/webantoan/internal/logbuffer"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

// DefaultLogBufferSize is the default number of entries kept in memory
const DefaultLogBufferSize = 1000

var (
	// mu protects isEnabled, currentLevel and basePathPrefix
	mu             sync.RWMutex
	isEnabled      bool
	currentLevel   LogLevel
	basePathPrefix string

	logger    *log.Logger
	logBuffer *logbuffer.Buffer

	levelNames = map[LogLevel]string{
		LevelDebug:   "DEBUG",
		LevelInfo:    "INFO",
		LevelWarning: "WARNING",
		LevelError:   "ERROR",
	}
	levelMap = map[string]LogLevel{
		"DEBUG":   LevelDebug,
		"INFO":    LevelInfo,
		"WARNING": LevelWarning,
		"ERROR":   LevelError,
	}
)

func init() {
	logger = log.New(os.Stdout, "", 0)

	bufferSize := DefaultLogBufferSize
	if sizeStr := os.Getenv("LOG_BUFFER_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			bufferSize = size
		}
	}
	logBuffer = logbuffer.New(bufferSize)

	Reinitialize()
}

// Reinitialize reloads DEBUG and LOG_LEVEL from the environment
func Reinitialize() {
	debugEnv := os.Getenv("DEBUG")
	enabled := debugEnv == "true" || debugEnv == "1"

	level := LevelInfo
	if l, exists := levelMap[strings.ToUpper(os.Getenv("LOG_LEVEL"))]; exists {
		level = l
	}

	mu.Lock()
	isEnabled = enabled
	currentLevel = level
	mu.Unlock()

	if enabled {
		Info("Debug logging initialized - Enabled: %v, Level: %s", enabled, levelNames[level])
	}
}

// IsDebugEnabled returns whether debug logging is enabled (thread-safe)
func IsDebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return isEnabled
}

// GetLogLevel returns the current log level (thread-safe)
func GetLogLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// SetEnabled enables or disables debug logging at runtime (thread-safe)
func SetEnabled(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	isEnabled = enabled
}

// SetLogLevel sets the minimum log level at runtime (thread-safe)
func SetLogLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

// ParseLevel converts a string to LogLevel
func ParseLevel(levelStr string) (LogLevel, bool) {
	level, exists := levelMap[strings.ToUpper(levelStr)]
	return level, exists
}

// SetBasePath strips the given directory from every logged message so that
// wordlist and data paths are logged relative to it.
func SetBasePath(path string) {
	mu.Lock()
	defer mu.Unlock()
	if path != "" && !strings.HasSuffix(path, string(os.PathSeparator)) {
		path += string(os.PathSeparator)
	}
	basePathPrefix = path
}

func sanitize(msg string) string {
	mu.RLock()
	prefix := basePathPrefix
	mu.RUnlock()
	if prefix == "" {
		return msg
	}
	return strings.ReplaceAll(msg, prefix, "")
}

// RedactPassword masks a recovered plaintext before it reaches the logs.
// Only the first character and the length survive.
func RedactPassword(password string) string {
	if password == "" {
		return ""
	}
	r := []rune(password)
	return fmt.Sprintf("%c***(len=%d)", r[0], len(r))
}

// Log prints a structured log message at INFO level. A job_id field also
// tags the buffered entry with that job.
func Log(message string, fields map[string]interface{}) {
	if fields == nil {
		write(2, LevelInfo, "", message)
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fieldStrs := make([]string, 0, len(keys))
	for _, k := range keys {
		fieldStrs = append(fieldStrs, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	jobID, _ := fields["job_id"].(string)
	write(2, LevelInfo, jobID, fmt.Sprintf("%s [%s]", message, strings.Join(fieldStrs, ", ")))
}

func LogWithLevel(level LogLevel, format string, v ...interface{}) {
	write(3, level, "", fmt.Sprintf(format, v...))
}

// Job logs a message about one job at the given level
func Job(level LogLevel, jobID, format string, v ...interface{}) {
	write(2, level, jobID, fmt.Sprintf(format, v...))
}

// write emits one line. skip counts the frames between write and the code
// being logged.
func write(skip int, level LogLevel, jobID, message string) {
	mu.RLock()
	enabled := isEnabled
	minLevel := currentLevel
	mu.RUnlock()

	if !enabled || level < minLevel {
		return
	}

	pc, file, line, _ := runtime.Caller(skip)
	funcName := runtime.FuncForPC(pc).Name()

	message = sanitize(message)
	now := time.Now()

	logBuffer.Add(logbuffer.LogEntry{
		Timestamp: now,
		Level:     levelNames[level],
		JobID:     jobID,
		Message:   message,
		File:      file,
		Line:      line,
		Function:  funcName,
	})

	logger.Printf("[%s] [%s] [%s:%d] [%s] %s\n",
		levelNames[level],
		now.Format("2006-01-02 15:04:05.000"),
		file,
		line,
		funcName,
		message,
	)
}

// Debug logs a debug level message
func Debug(format string, v ...interface{}) {
	LogWithLevel(LevelDebug, format, v...)
}

// Info logs an info level message
func Info(format string, v ...interface{}) {
	LogWithLevel(LevelInfo, format, v...)
}

// Warning logs a warning level message
func Warning(format string, v ...interface{}) {
	LogWithLevel(LevelWarning, format, v...)
}

// Error logs an error level message
func Error(format string, v ...interface{}) {
	LogWithLevel(LevelError, format, v...)
}

// GetBufferedLogs returns buffered entries at or after since, oldest first
func GetBufferedLogs(since time.Time) []logbuffer.LogEntry {
	return logBuffer.GetSince(since)
}

// FindBufferedLogs returns buffered entries matching f, oldest first
func FindBufferedLogs(f logbuffer.Filter) []logbuffer.LogEntry {
	return logBuffer.Find(f)
}

// ClearLogBuffer drops every buffered entry
func ClearLogBuffer() {
	logBuffer.Clear()
}
