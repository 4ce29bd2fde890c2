package gelf

import (
	"encoding/json"
	"log/slog"
	"net"
	"testing"
	"time"
)

func TestWriterSendsSlogRecord(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	w, err := New(pc.LocalAddr().String(), "joinus")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	logger := slog.New(slog.NewJSONHandler(w, nil))
	logger.Warn("duplicate submission", "name", "张三")

	pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 8192)
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg map[string]any
	if err := json.Unmarshal(buf[:n], &msg); err != nil {
		t.Fatal(err)
	}
	if msg["short_message"] != "duplicate submission" {
		t.Errorf("short_message = %v", msg["short_message"])
	}
	if msg["level"] != float64(4) {
		t.Errorf("level = %v", msg["level"])
	}
	if msg["_service"] != "joinus" {
		t.Errorf("_service = %v", msg["_service"])
	}
	if msg["_name"] != "张三" {
		t.Errorf("_name = %v", msg["_name"])
	}
}

func TestMessagePlainText(t *testing.T) {
	w := &Writer{hostname: "h", service: "joinus"}
	msg := w.message([]byte("plain line\n"))
	if msg["short_message"] != "plain line" {
		t.Errorf("short_message = %v", msg["short_message"])
	}
	if msg["level"] != 6 {
		t.Errorf("level = %v", msg["level"])
	}
}
