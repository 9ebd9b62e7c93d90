package http

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	requestBodyLogKey  = "http.request.body.summary"
	responseBodyLogKey = "http.response.body.summary"
	maxLoggedBody      = 2048
)

func registerLogging(e *echo.Echo, logger *zap.Logger) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Int64("latency_ms", v.Latency.Milliseconds()),
			}
			if summary, ok := c.Get(requestBodyLogKey).(string); ok {
				fields = append(fields, zap.String("request_body", summary))
			}
			if summary, ok := c.Get(responseBodyLogKey).(string); ok {
				fields = append(fields, zap.String("response_body", summary))
			}
			if v.Error != nil {
				fields = append(fields, zap.String("error", v.Error.Error()))
				logger.Error("request", fields...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		if summary := summarizeBody(reqBody, c.Request().Header.Get(echo.HeaderContentType)); summary != "" {
			c.Set(requestBodyLogKey, summary)
		}
		if summary := summarizeBody(resBody, c.Response().Header().Get(echo.HeaderContentType)); summary != "" {
			c.Set(responseBodyLogKey, summary)
		}
	}))
}

// summarizeBody produces a log-safe rendering of a request or response body.
// Multipart and binary bodies collapse to a marker so report files never end
// up in the log stream.
func summarizeBody(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}
	lowered := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(lowered, "multipart/form-data") {
		return "multipart"
	}
	if strings.HasPrefix(lowered, "application/json") || json.Valid(body) {
		return clampString(string(body))
	}
	if containsBinaryBytes(body) {
		return "binary"
	}
	return clampString(string(body))
}

func containsBinaryBytes(data []byte) bool {
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			return true
		}
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return true
		}
		data = data[size:]
	}
	return false
}

func clampString(value string) string {
	if len(value) <= maxLoggedBody {
		return value
	}
	truncated := value[:maxLoggedBody]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "...(truncated)"
}
