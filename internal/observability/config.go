package observability

import (
	nethttp "net/http"
	"net/http/pprof"
)

// PprofPrefix is where the profiling endpoints are mounted when enabled.
const PprofPrefix = "/debug/pprof/"

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	EnablePprof bool
}

// Register mounts the enabled endpoints on mux. With everything disabled it
// leaves mux untouched.
func (c Config) Register(mux *nethttp.ServeMux) {
	if !c.EnablePprof || mux == nil {
		return
	}
	mux.HandleFunc(PprofPrefix, pprof.Index)
	mux.HandleFunc(PprofPrefix+"cmdline", pprof.Cmdline)
	mux.HandleFunc(PprofPrefix+"profile", pprof.Profile)
	mux.HandleFunc(PprofPrefix+"symbol", pprof.Symbol)
	mux.HandleFunc(PprofPrefix+"trace", pprof.Trace)
}
