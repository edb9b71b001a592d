package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"cloud.google.com/go/logging"
)

// Logger writes entries to Stackdriver, or to a local writer when running
// outside of GCP.
type Logger struct {
	stackDriverLogger *logging.Logger
	loggingClient     *logging.Client
	httpRequest       *logging.HTTPRequest
	local             *log.Logger
	opts              options
}

type options struct {
	debug           bool
	local           bool
	logName         string
	prefix          string
	defaultSeverity logging.Severity
	out             io.Writer
}

// Option configures a Logger
type Option func(*options)

// WithDebug enables Debug entries.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithLogName sets the Stackdriver log id.
func WithLogName(logName string) Option {
	return func(o *options) {
		o.logName = logName
	}
}

// WithPrefix is prepended to every message.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithDefaultSeverity is the severity used by Output and Printf.
func WithDefaultSeverity(severity logging.Severity) Option {
	return func(o *options) {
		o.defaultSeverity = severity
	}
}

// WithLocal skips Stackdriver entirely.
func WithLocal(local bool) Option {
	return func(o *options) {
		o.local = local
	}
}

// WithOutput sets the writer used in local mode. Defaults to stderr.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// New creates a Logger for projectID. With no projectID, or WithLocal(true),
// entries go to the local writer.
func New(projectID string, opts ...Option) *Logger {
	o := options{
		logName:         "dice10k-relay",
		defaultSeverity: logging.Info,
		out:             os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := &Logger{
		opts:  o,
		local: log.New(o.out, "", log.LstdFlags),
	}
	if o.local || projectID == "" {
		return logger
	}
	loggingClient, err := logging.NewClient(context.Background(), projectID)
	if err != nil {
		logger.local.Printf("[ERROR] could not create logging client, logging locally: %v", err)
		return logger
	}
	loggingClient.OnError = func(err error) {
		log.Printf("logging client error: %v", err)
	}
	logger.loggingClient = loggingClient
	logger.stackDriverLogger = loggingClient.Logger(o.logName)
	return logger
}

// WithRequest returns a shallow copy of logger with a request present
func (logger *Logger) WithRequest(r *http.Request) *Logger {
	if r == nil || logger == nil {
		panic("nil request")
	}
	logger2 := new(Logger)
	*logger2 = *logger
	logger2.httpRequest = &logging.HTTPRequest{Request: r}
	return logger2
}

func (logger *Logger) Debug(message interface{}) {
	if !logger.opts.debug {
		return
	}
	logger.log(logging.Entry{
		Payload:  message,
		Severity: logging.Debug,
	})
}
func (logger *Logger) Info(message interface{}) {
	logger.log(logging.Entry{
		Payload:  message,
		Severity: logging.Info,
	})
}
func (logger *Logger) Warning(message interface{}) {
	logger.log(logging.Entry{
		Payload:  message,
		Severity: logging.Warning,
	})
}
func (logger *Logger) Error(message interface{}) {
	logger.log(logging.Entry{
		Payload:  message,
		Severity: logging.Error,
	})
}
func (logger *Logger) Critical(message interface{}) {
	logger.log(logging.Entry{
		Payload:  message,
		Severity: logging.Critical,
	})
}
func (logger *Logger) Debugf(format string, a ...interface{}) {
	logger.Debug(fmt.Sprintf(format, a...))
}
func (logger *Logger) Infof(format string, a ...interface{}) {
	logger.Info(fmt.Sprintf(format, a...))
}
func (logger *Logger) Warningf(format string, a ...interface{}) {
	logger.Warning(fmt.Sprintf(format, a...))
}
func (logger *Logger) Errorf(format string, a ...interface{}) {
	logger.Error(fmt.Sprintf(format, a...))
}
func (logger *Logger) Criticalf(format string, a ...interface{}) {
	logger.Critical(fmt.Sprintf(format, a...))
}

// Output lets the logger stand in for slack-go's logger (slack.OptionLog).
func (logger *Logger) Output(calldepth int, s string) error {
	if logger.opts.defaultSeverity == logging.Debug && !logger.opts.debug {
		return nil
	}
	logger.log(logging.Entry{
		Payload:  s,
		Severity: logger.opts.defaultSeverity,
	})
	return nil
}

func (logger *Logger) log(entry logging.Entry) {
	e := entry
	if s, ok := e.Payload.(string); ok && logger.opts.prefix != "" {
		e.Payload = logger.opts.prefix + s
	}
	if logger.stackDriverLogger == nil {
		logger.local.Printf("[%s] %v", e.Severity, e.Payload)
		return
	}
	if logger.httpRequest != nil && entry.HTTPRequest == nil {
		e.HTTPRequest = logger.httpRequest
	}
	logger.stackDriverLogger.Log(e)
}

// Close flushes pending entries.
func (logger *Logger) Close() {
	if logger.loggingClient == nil {
		return
	}
	if err := logger.loggingClient.Close(); err != nil {
		log.Printf("could not close logging client: %v", err)
	}
}

// Printf logs through the standard logger, for use before a Logger exists.
func Printf(format string, a ...interface{}) {
	log.Printf(format, a...)
}

// Println logs through the standard logger.
func Println(a ...interface{}) {
	log.Println(a...)
}

// Fatalf logs through the standard logger and exits.
func Fatalf(format string, a ...interface{}) {
	log.Fatalf(format, a...)
}
