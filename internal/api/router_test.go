package api

import (
	"io"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/hestia-ops/hestia-backend-go/internal/config"
)

func TestNewRouter_ModeSelection(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tests := []struct {
		name string
		mode string
		want string
	}{
		{name: "release mode", mode: "release", want: gin.ReleaseMode},
		{name: "debug mode", mode: "debug", want: gin.DebugMode},
		{name: "unknown mode falls back to release", mode: "production", want: gin.ReleaseMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Server: config.ServerConfig{Mode: tt.mode}}
			router := NewRouter(cfg, nil, nil, nil, nil, nil, nil, nil, logger)
			assert.NotNil(t, router)
			assert.Equal(t, tt.want, gin.Mode())
		})
	}
}
