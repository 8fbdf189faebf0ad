package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/dsasheet/internal/infrastructure/config"
)

const requestIDHeader = "X-Request-Id"

// InterceptorLogger adapts a logrus logger to the grpc middleware logger.
func InterceptorLogger(l logrus.FieldLogger) logging.Logger {
	return logging.LoggerFunc(func(_ context.Context, lvl logging.Level, msg string, fields ...any) {
		f := make(logrus.Fields, len(fields)/2)
		for i := 0; i+1 < len(fields); i += 2 {
			f[fmt.Sprint(fields[i])] = fields[i+1]
		}
		entry := l.WithFields(f)
		switch lvl {
		case logging.LevelDebug:
			entry.Debug(msg)
		case logging.LevelInfo:
			entry.Info(msg)
		case logging.LevelWarn:
			entry.Warn(msg)
		default:
			entry.Error(msg)
		}
	})
}

// Logger logs every unary connect call and tags it with a request id. An
// incoming X-Request-Id is reused, otherwise a new one is generated.
func Logger(l logrus.FieldLogger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			requestID := req.Header().Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			start := time.Now()
			resp, err := next(ctx, req)

			duration := time.Since(start)
			code := connect.CodeOf(err)
			// A failed handler returns a typed nil response wrapped in a
			// non-nil interface, so only err tells which side to tag.
			var connectErr *connect.Error
			switch {
			case err == nil && resp != nil:
				resp.Header().Set(requestIDHeader, requestID)
			case errors.As(err, &connectErr):
				connectErr.Meta().Set(requestIDHeader, requestID)
			}

			entry := l.WithFields(buildLogFields(req, resp, requestID, code, duration, err))
			switch determineLogLevel(code, err) {
			case logrus.InfoLevel:
				entry.Info("request completed")
			case logrus.WarnLevel:
				entry.Warn("request completed")
			default:
				entry.Error("request completed")
			}
			return resp, err
		}
	}
}

func determineLogLevel(code connect.Code, err error) logrus.Level {
	if err == nil {
		return logrus.InfoLevel
	}
	switch code {
	case connect.CodeInvalidArgument, connect.CodeFailedPrecondition, connect.CodeNotFound,
		connect.CodeAlreadyExists, connect.CodeAborted, connect.CodeCanceled:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

func buildLogFields(req connect.AnyRequest, resp connect.AnyResponse, requestID string, code connect.Code, duration time.Duration, err error) logrus.Fields {
	fields := logrus.Fields{
		"procedure":  req.Spec().Procedure,
		"status":     code.String(),
		"duration":   duration,
		"request_id": requestID,
	}
	if err == nil {
		fields["status"] = "ok"
	}

	peer := req.Peer()
	setField(fields, "http_method", req.HTTPMethod())
	setField(fields, "peer_addr", peer.Addr)
	setField(fields, "protocol", peer.Protocol)

	header := req.Header()
	setField(fields, "user_agent", header.Get("User-Agent"))
	setField(fields, "client_ip", firstForwardedFor(header))
	setField(fields, "content_type", header.Get("Content-Type"))
	if cl := contentLength(header); cl >= 0 {
		fields["request_bytes"] = cl
	}
	if err != nil {
		fields["error"] = err.Error()
	} else if resp != nil {
		if cl := contentLength(resp.Header()); cl >= 0 {
			fields["response_bytes"] = cl
		}
	}
	return fields
}

func setField(fields logrus.Fields, key, value string) {
	if value == "" {
		return
	}
	fields[key] = value
}

func firstForwardedFor(header http.Header) string {
	forwarded := header.Get("X-Forwarded-For")
	if forwarded == "" {
		return ""
	}
	for _, part := range strings.Split(forwarded, ",") {
		if candidate := strings.TrimSpace(part); candidate != "" {
			return candidate
		}
	}
	return ""
}

func contentLength(header http.Header) int {
	if header == nil {
		return -1
	}
	if cl := header.Get("Content-Length"); cl != "" {
		if parsed, err := strconv.Atoi(cl); err == nil {
			return parsed
		}
	}
	return -1
}

// NewLogger builds a configured logrus logger from application config.
func NewLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}
