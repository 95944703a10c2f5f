package observability

import (
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegisterMountsPprofWhenEnabled(t *testing.T) {
	mux := nethttp.NewServeMux()
	Config{EnablePprof: true}.Register(mux)

	req := httptest.NewRequest(nethttp.MethodGet, PprofPrefix, nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)

	if resp.Code != nethttp.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "goroutine") {
		t.Fatalf("expected profile index, got %q", resp.Body.String())
	}
}

func TestRegisterLeavesMuxAloneWhenDisabled(t *testing.T) {
	mux := nethttp.NewServeMux()
	Config{}.Register(mux)

	req := httptest.NewRequest(nethttp.MethodGet, PprofPrefix, nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)

	if resp.Code != nethttp.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}
