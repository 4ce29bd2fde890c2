package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

// Writer sends GELF messages over UDP and implements io.Writer
// so it can sit behind an slog JSON handler via io.MultiWriter.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service + "-server"
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// syslog severities
var levels = map[string]int{
	"DEBUG": 7,
	"INFO":  6,
	"WARN":  4,
	"ERROR": 3,
}

// Write implements io.Writer. Each call carries one slog JSON record and
// sends one GELF message. Record attributes become additional fields.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.message(p))
	if err != nil {
		return len(p), nil // don't fail the log call
	}

	// Fire-and-forget
	w.conn.Write(payload)
	return len(p), nil
}

func (w *Writer) Close() error {
	return w.conn.Close()
}

func (w *Writer) message(p []byte) map[string]any {
	line := strings.TrimRight(string(p), "\n")
	msg := map[string]any{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": line,
		"timestamp":     float64(time.Now().UnixNano()) / 1e9,
		"level":         6,
		"_service":      w.service,
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return msg
	}
	for k, v := range record {
		switch k {
		case "msg":
			if s, ok := v.(string); ok {
				msg["short_message"] = s
			}
		case "level":
			if s, ok := v.(string); ok {
				if lvl, ok := levels[s]; ok {
					msg["level"] = lvl
				}
			}
		case "time":
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					msg["timestamp"] = float64(t.UnixNano()) / 1e9
				}
			}
		case "id":
			// GELF reserves _id.
			msg["_record_id"] = v
		default:
			msg["_"+k] = v
		}
	}
	return msg
}
