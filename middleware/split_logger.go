package middleware

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// creates a new SplitLogFormatter; an empty err_log_path disables the err log
func NewSplitLogFormatter(logger zerolog.Logger, err_log_path string) (*SplitLogFormatter, error) {
	f := &SplitLogFormatter{Logger: logger}
	if err_log_path == "" {
		return f, nil
	}

	log_file, err := os.OpenFile(err_log_path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.Error().Err(err).Str("path", err_log_path).Msg("unable to open err log file")
		return nil, err
	}
	logger.Info().Str("path", err_log_path).Msg("logging errs to file")

	file_logger := zerolog.New(log_file).With().Timestamp().Logger()
	f.FileLogger = &file_logger
	f.log_file = log_file

	return f, nil
}

// middleware that logs requests using SplitLogFormatter
func SplitRequestLogger(f *SplitLogFormatter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			entry := f.NewLogEntry(r)

			// custom response writer to capture status text
			crw := &CustomResponseWriter{ResponseWriter: w}
			ww := middleware.NewWrapResponseWriter(crw, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				entry.Write(ww.Status(), ww.BytesWritten(), ww.Header(), time.Since(t1), crw)
			}()

			next.ServeHTTP(ww, middleware.WithLogEntry(r, entry))
		}
		return http.HandlerFunc(fn)
	}
}

// CustomResponseWriter wraps the http.ResponseWriter to capture any
// custom status text
type CustomResponseWriter struct {
	http.ResponseWriter
	StatusText string
}

func (crw *CustomResponseWriter) Write(b []byte) (int, error) {
	if crw.StatusText == "" {
		crw.StatusText = string(b)
	}
	return crw.ResponseWriter.Write(b)
}

// logs every request and "tees" 3xx+ responses to the err log file
type SplitLogFormatter struct {
	Logger     zerolog.Logger
	FileLogger *zerolog.Logger

	log_file *os.File
}

func (l *SplitLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &SplitLogEntry{
		Formatter: l,
		Request:   r,
	}
}

func (l *SplitLogFormatter) Close() error {
	if l.log_file == nil {
		return nil
	}
	return l.log_file.Close()
}

type SplitLogEntry struct {
	Formatter *SplitLogFormatter
	Request   *http.Request
}

func (l *SplitLogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	var ev *zerolog.Event
	switch {
	case status >= 500:
		ev = l.Formatter.Logger.Error()
	case status >= 400:
		ev = l.Formatter.Logger.Warn()
	default:
		ev = l.Formatter.Logger.Info()
	}
	ev.
		Str("req_id", middleware.GetReqID(l.Request.Context())).
		Str("method", l.Request.Method).
		Str("path", l.Request.URL.Path).
		Str("remote", l.Request.RemoteAddr).
		Int("status", status).
		Int("bytes", bytes).
		Dur("elapsed", elapsed).
		Msg("request")

	if status > 299 && l.Formatter.FileLogger != nil {
		status_text := "Unknown Error"
		if crw, ok := extra.(*CustomResponseWriter); ok {
			status_text = crw.StatusText
		}
		l.Formatter.FileLogger.Error().
			Int("status", status).
			Str("method", l.Request.Method).
			Str("path", l.Request.URL.Path).
			Str("remote", l.Request.RemoteAddr).
			Int("bytes", bytes).
			Dur("elapsed", elapsed).
			Str("status_text", status_text).
			Msg("err")
	}
}

func (l *SplitLogEntry) Panic(v interface{}, stack []byte) {
	l.Formatter.Logger.Error().
		Interface("panic", v).
		Bytes("stack", stack).
		Str("path", l.Request.URL.Path).
		Msg("recovered from panic")
}
