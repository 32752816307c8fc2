package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// UserIDKey is the fiber local the auth middleware stores the viewer id under.
const UserIDKey = "userID"

const (
	summaryLimit = 1024
	previewLimit = 200
	redacted     = "[REDACTED]"
)

type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	UserID    *string                `json:"user_id,omitempty"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// FileOptions configures the optional rotating log file written next to stdout.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var levelColors = map[LogLevel]string{
	LevelInfo:  "\033[36m",
	LevelWarn:  "\033[33m",
	LevelError: "\033[31m",
}

type Logger struct {
	mu      sync.Mutex
	console io.Writer
	colored bool
	file    io.Writer
}

var globalLogger *Logger

func New(output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{console: output, colored: output == os.Stdout}
}

func Init() {
	globalLogger = New(os.Stdout)
}

// InitWithFile is Init plus a lumberjack-rotated copy of every entry.
func InitWithFile(opts FileOptions) {
	l := New(os.Stdout)
	if opts.Path != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
	}
	globalLogger = l
}

// SetOutput routes the global logger to w without colour codes.
func SetOutput(w io.Writer) {
	globalLogger = New(w)
}

func (l *Logger) write(entry LogEntry) {
	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":"error","action":"log_encode_failed","error":%q}`, err.Error()))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.colored {
		fmt.Fprintf(l.console, "%s%s\033[0m\n", levelColors[entry.Level], line)
	} else {
		fmt.Fprintf(l.console, "%s\n", line)
	}
	if l.file != nil {
		fmt.Fprintf(l.file, "%s\n", line)
	}
}

func emit(level LogLevel, action string, userID *string, details map[string]interface{}, err error) {
	if globalLogger == nil {
		return
	}
	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		UserID:    userID,
		Action:    action,
		Details:   details,
		Caller:    caller(3),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	globalLogger.write(entry)
}

// caller reports file:line of the code that called the public log helper.
func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s/%s:%d", filepath.Base(filepath.Dir(file)), filepath.Base(file), line)
}

func Info(action string, details map[string]interface{}) {
	emit(LevelInfo, action, nil, details, nil)
}

func InfoWithUser(userID string, action string, details map[string]interface{}) {
	emit(LevelInfo, action, &userID, details, nil)
}

func Warn(action string, details map[string]interface{}) {
	emit(LevelWarn, action, nil, details, nil)
}

func WarnWithUser(userID string, action string, details map[string]interface{}) {
	emit(LevelWarn, action, &userID, details, nil)
}

func Error(action string, err error, details map[string]interface{}) {
	emit(LevelError, action, nil, details, err)
}

func ErrorWithUser(userID string, action string, err error, details map[string]interface{}) {
	emit(LevelError, action, &userID, details, err)
}

func GetUserIDFromContext(c *fiber.Ctx) *string {
	if id, ok := c.Locals(UserIDKey).(string); ok && id != "" {
		return &id
	}
	return nil
}

func GenerateRequestID() string {
	return uuid.New().String()
}

// Credentials from the login, signup and session forms never reach the log.
var sensitiveFields = map[string]bool{
	"password":            true,
	"password1":           true,
	"password2":           true,
	"token":               true,
	"secret":              true,
	"csrfmiddlewaretoken": true,
}

// GetRequestBodySummary describes a request body for the access log. Form and
// JSON bodies are shown with credentials masked; uploads only by size.
func GetRequestBodySummary(c *fiber.Ctx) string {
	body := c.Body()
	contentType := c.Get(fiber.HeaderContentType)

	switch {
	case len(body) == 0:
		return "empty"
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		return fmt.Sprintf("multipart (%d bytes)", len(body))
	case len(body) > summaryLimit:
		return fmt.Sprintf("large (%d bytes)", len(body))
	case strings.HasPrefix(contentType, fiber.MIMEApplicationForm):
		if values, err := url.ParseQuery(string(body)); err == nil {
			for field := range values {
				if sensitiveFields[field] {
					values.Set(field, redacted)
				}
			}
			return preview(values.Encode())
		}
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err == nil {
		for field := range fields {
			if sensitiveFields[field] {
				fields[field] = redacted
			}
		}
		if masked, err := json.Marshal(fields); err == nil {
			return preview(string(masked))
		}
	}

	return fmt.Sprintf("binary (%d bytes)", len(body))
}

func GetResponseSizeSummary(c *fiber.Ctx) string {
	size := len(c.Response().Body())
	switch {
	case size == 0:
		return "empty"
	case size > summaryLimit:
		return fmt.Sprintf("large (%d bytes)", size)
	default:
		return fmt.Sprintf("small (%d bytes)", size)
	}
}

func preview(s string) string {
	if len(s) > previewLimit {
		return s[:previewLimit] + "..."
	}
	return s
}
