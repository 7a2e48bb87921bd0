package server

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/config"
	"github.com/dmitrijs2005/voicegate/internal/server/probe"
	"github.com/dmitrijs2005/voicegate/internal/server/uploads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("")
	require.NoError(t, err)
	assert.IsType(t, &logging.SlogLogger{}, l)

	l, err = NewLogger(config.LogBackendZap)
	require.NoError(t, err)
	assert.IsType(t, &logging.ZapLogger{}, l)

	_, err = NewLogger("syslog")
	assert.Error(t, err)
}

func TestNewProbe(t *testing.T) {
	for _, backend := range []string{config.ProbeBackendWAV, config.ProbeBackendFFProbe, config.ProbeBackendAuto} {
		c := &config.Config{}
		c.LoadDefaults()
		c.ProbeBackend = backend
		assert.IsType(t, &probe.Chain{}, NewProbe(c), backend)
	}
}

func TestNewUploadStore(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()
	c.UploadDir = t.TempDir()

	s, err := NewUploadStore(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &uploads.LocalStore{}, s)

	c.UploadBackend = "ftp"
	_, err = NewUploadStore(context.Background(), c)
	assert.Error(t, err)
}
