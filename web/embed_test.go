package web

import (
	"io/fs"
	"strconv"
	"strings"
	"testing"

	"pixel-pursuit/server/internal/frame"
)

func TestClientServesIndex(t *testing.T) {
	data, err := fs.ReadFile(Client(), "index.html")
	if err != nil {
		t.Fatalf("expected embedded index.html: %v", err)
	}
	if !strings.Contains(string(data), "/ws") {
		t.Fatalf("expected client to connect to /ws")
	}
}

func readIndex(t *testing.T) string {
	t.Helper()
	data, err := fs.ReadFile(Client(), "index.html")
	if err != nil {
		t.Fatalf("expected embedded index.html: %v", err)
	}
	return string(data)
}

func TestClientSignalsReadyBeforeAddFrame(t *testing.T) {
	index := readIndex(t)
	ready := strings.Index(index, "sdk.actions.ready(")
	add := strings.Index(index, "sdk.actions.addFrame(")
	if ready < 0 || add < 0 {
		t.Fatalf("expected ready and addFrame calls, got ready=%d addFrame=%d", ready, add)
	}
	if ready > add {
		t.Fatalf("expected ready to be signalled before the add prompt")
	}
	if strings.Contains(index, "await sdk.actions.addFrame(") {
		t.Fatalf("expected addFrame to run without blocking the host setup")
	}
}

func TestClientClassifiesAddFrameRejections(t *testing.T) {
	index := readIndex(t)
	for _, want := range []string{
		"error instanceof AddFrame.RejectedByUser",
		"error instanceof AddFrame.InvalidDomainManifest",
		strconv.Quote(frame.AddResultRejectedByUser),
		strconv.Quote(frame.AddResultInvalidDomainManifest),
		strconv.Quote(frame.AddResultAdded),
	} {
		if !strings.Contains(index, want) {
			t.Fatalf("expected %s in client script", want)
		}
	}
	if strings.Contains(index, "constructor?.name") {
		t.Fatalf("expected rejections to be classified by class, not by name")
	}
}
