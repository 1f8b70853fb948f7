package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/riskibarqy/finboard/internal/config"
	"github.com/riskibarqy/finboard/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func TestStart_AllDisabled(t *testing.T) {
	stack, err := Start(config.Config{UptraceEnabled: true}, logging.NewNop())
	require.NoError(t, err)
	require.Empty(t, stack.Enabled())
	require.NoError(t, stack.Shutdown(context.Background()))
}

func TestStart_PprofServesAndStops(t *testing.T) {
	stack, err := Start(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop())
	require.NoError(t, err)
	require.Equal(t, []string{"pprof"}, stack.Enabled())

	resp, err := http.Get("http://" + stack.pprofAddr + "/debug/pprof/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, stack.Shutdown(context.Background()))
	require.Empty(t, stack.Enabled())
}

func TestStart_PprofPortTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, err = Start(config.Config{PprofEnabled: true, PprofAddr: ln.Addr().String()}, logging.NewNop())
	require.Error(t, err)
}

func TestShutdown_ReverseOrderJoinsErrors(t *testing.T) {
	var order []string
	errProfiler := errors.New("flush failed")

	stack := &Stack{logger: logging.NewNop()}
	stack.add("uptrace", func(context.Context) error { order = append(order, "uptrace"); return nil })
	stack.add("pyroscope", func(context.Context) error { order = append(order, "pyroscope"); return errProfiler })
	stack.add("pprof", func(context.Context) error { order = append(order, "pprof"); return nil })

	err := stack.Shutdown(context.Background())
	require.ErrorIs(t, err, errProfiler)
	require.Equal(t, []string{"pprof", "pyroscope", "uptrace"}, order)
}
