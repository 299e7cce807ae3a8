package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hospital/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestNewWithWriter_Level(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "warn"
	var buf bytes.Buffer
	logger := NewWithWriter(cfg, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Errorf("info message should be filtered at warn level: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Errorf("warn message missing: %s", buf.String())
	}
}

func TestNewWithWriter_BadLevelFallsBackToInfo(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "loud"
	logger := NewWithWriter(cfg, &bytes.Buffer{})
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %v", logger.GetLevel())
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/index", func(c *gin.Context) {
		c.Set(PrincipalKey, "admin")
		c.String(http.StatusOK, "OK")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/index", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["path"] != "/index" || entry["user"] != "admin" || entry["status"] != float64(200) {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Recovery(zerolog.New(&buf)))
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", w.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte("panic recovered")) {
		t.Errorf("panic was not logged: %s", buf.String())
	}
}
