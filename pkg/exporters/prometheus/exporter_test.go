package prometheus

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/logwarden/logwarden/pkg/stats"
	"github.com/logwarden/logwarden/pkg/types"
)

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// waitForServerReady polls until the server is accepting connections.
func waitForServerReady(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("metrics server at %s never became ready", addr)
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name    string
		config  *types.PrometheusExporterConfig
		wantErr string
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: "config cannot be nil",
		},
		{
			name:    "disabled",
			config:  &types.PrometheusExporterConfig{Enabled: false},
			wantErr: "disabled",
		},
		{
			name:   "valid",
			config: &types.PrometheusExporterConfig{Enabled: true, Port: 9200, Path: "/metrics"},
		},
	}

	for _, tt := range tests {
		_, err := NewExporter(tt.config, "test")
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("%s: unexpected error: %v", tt.name, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("%s: expected error containing %q", tt.name, tt.wantErr)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestExporterServesMetrics(t *testing.T) {
	port := freePort(t)
	config := &types.PrometheusExporterConfig{Enabled: true, Port: port, Path: "/metrics"}

	exporter, err := NewExporter(config, "1.2.3")
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	if err := exporter.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer exporter.Stop()

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	waitForServerReady(t, addr)

	snap := stats.Snapshot{
		TotalLines: 42,
		PerSourcePattern: map[string]map[string]int64{
			"syslog": {"oom": 7},
		},
	}
	exporter.UpdateFrom(snap, 5, 2)
	exporter.ObserveSource(&types.Source{Name: "syslog", LinesProcessed: 42})

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("scraping metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	out := string(body)

	for _, want := range []string{
		`logwarden_matches{pattern="oom",source="syslog"} 7`,
		`logwarden_lines_processed{source="all"} 42`,
		`logwarden_stored_matches 5`,
		`logwarden_watchers_active 2`,
		`logwarden_lines_processed{source="syslog"} 42`,
		`version="1.2.3"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestExporterStopIsIdempotent(t *testing.T) {
	config := &types.PrometheusExporterConfig{Enabled: true, Port: freePort(t), Path: "/metrics"}
	exporter, err := NewExporter(config, "test")
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	// Stop before Start is a no-op.
	if err := exporter.Stop(); err != nil {
		t.Errorf("Stop before Start failed: %v", err)
	}

	if err := exporter.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := exporter.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := exporter.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestMetricsCustomNamespace(t *testing.T) {
	m := NewMetrics("custom")
	if m.LinesProcessed == nil || m.Matches == nil {
		t.Fatal("metric families should be constructed")
	}

	// Default namespace when none is given.
	d := NewMetrics("")
	if d.StoredMatches == nil {
		t.Fatal("default-namespace metrics should be constructed")
	}
}
