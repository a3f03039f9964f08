package logx

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	prevColor := useColor()
	SetEnv("ci")
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		SetLevel("info")
		color.Store(prevColor)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := captureLog(t)

	SetLevel("warn")
	Info("Client", "hidden %d", 1)
	Warn("Client", "shown %d", 2)

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "[WARN] [Client] shown 2")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel(" error "))
	require.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestTimerEnd(t *testing.T) {
	buf := captureLog(t)
	SetLevel("debug")

	d := Start("req-1", "Client", "GET /balance/1").End()
	require.GreaterOrEqual(t, int64(d), int64(0))
	require.Contains(t, buf.String(), "[req-1][TIMING] GET /balance/1")
}

func TestSetEnv_Colour(t *testing.T) {
	buf := captureLog(t)

	SetEnv("dev")
	Info("Mock", "coloured")
	require.Contains(t, buf.String(), Blue+"[INFO]"+Reset)

	buf.Reset()
	SetEnv("prod")
	Info("Mock", "plain")
	require.Equal(t, "[INFO] [Mock] plain\n", buf.String())
}
