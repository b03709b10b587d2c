package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sys/unix"

	"subgen/internal/config"
	"subgen/internal/services/gemini"
)

const (
	modelCheckTimeout  = 30 * time.Second
	brokerCheckTimeout = 5 * time.Second
)

// CheckAPIKey reports whether a real key is configured. The placeholder is a
// failure here even though generation still starts with it.
func CheckAPIKey(cfg *config.Config) Result {
	const name = "Gemini API key"
	if _, ok := cfg.GeminiAPIKey(); !ok {
		return Result{Name: name, Detail: "missing (set GEMINI_API_KEY or gemini.api_key)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckGemini verifies that the API is reachable, the key is accepted, and the
// model exists. Single attempt.
func CheckGemini(ctx context.Context, cfg *config.Config) Result {
	name := "Gemini model " + cfg.Gemini.Model

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	client := gemini.NewClient(gemini.ConfigFrom(cfg))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeModelError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckBrokers dials each Kafka broker once.
func CheckBrokers(ctx context.Context, brokers []string) Result {
	const name = "Kafka brokers"
	if len(brokers) == 0 {
		return Result{Name: name, Detail: "no brokers configured"}
	}
	dialer := &kafka.Dialer{Timeout: brokerCheckTimeout, DualStack: true}
	for _, broker := range brokers {
		checkCtx, cancel := context.WithTimeout(ctx, brokerCheckTimeout)
		conn, err := dialer.DialContext(checkCtx, "tcp", broker)
		cancel()
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%v)", broker, err)}
		}
		_ = conn.Close()
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d reachable", len(brokers))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeModelError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (Gemini API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (Gemini API unreachable)"
	}
	switch gemini.StatusCode(err) {
	case 400, 401, 403:
		return "API key rejected"
	case 404:
		return "model not found"
	}
	return err.Error()
}
