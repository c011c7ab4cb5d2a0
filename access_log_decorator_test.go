package lokoextensions

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func Test_rowLogger(t *testing.T) {
	t.Run("invalid options", func(t *testing.T) {
		tests := []struct {
			name    string
			options *AccessLogOptions
		}{
			{"zero max size", &AccessLogOptions{"/tmp/abc", 0, "3m", []string{"a"}}},
			{"empty field sequence", &AccessLogOptions{"/tmp/abc", 100, "3m", nil}},
			{"bad max time", &AccessLogOptions{"/tmp/abc", 100, "3ss", []string{"a"}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := newRowLogger(tt.options); err == nil {
					t.Errorf("newRowLogger() error = nil")
				}
			})
		}
	})

	t.Run("write log rows", func(t *testing.T) {
		logger, err := newRowLogger(&AccessLogOptions{
			PathPrefix:    t.TempDir() + "/access",
			MaxSize:       4096,
			MaxTime:       "3m",
			FieldSequence: []string{"a", "b"},
		})
		if err != nil {
			t.Fatalf("newRowLogger() error = %v", err)
		}

		row := newAccessLogRow()
		row.SetRowField("a", 1)
		row.SetRowField("b", "first")
		logger.writeLogRow(row)

		row = newAccessLogRow()
		row.SetRowField("a", 2)
		row.SetRowField("b", "second")
		logger.writeLogRow(row)

		logger.stop()

		content, err := os.ReadFile(logger.currentLogFilePath())
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}

		lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
		if len(lines) != 2 {
			t.Errorf("log lines = %v", lines)
		}

		if !strings.Contains(lines[0], "first") || !strings.Contains(lines[1], "second") {
			t.Errorf("log content = %q", content)
		}
	})

	t.Run("rotate log file by size", func(t *testing.T) {
		logger, err := newRowLogger(&AccessLogOptions{
			PathPrefix:    t.TempDir() + "/access",
			MaxSize:       10,
			MaxTime:       "3m",
			FieldSequence: []string{"a"},
		})
		if err != nil {
			t.Fatalf("newRowLogger() error = %v", err)
		}

		row := newAccessLogRow()
		row.SetRowField("a", strings.Repeat("x", 50))
		logger.writeLogRow(row)

		row = newAccessLogRow()
		row.SetRowField("a", strings.Repeat("y", 50))
		logger.writeLogRow(row)

		logger.stop()

		if path := logger.currentLogFilePath(); !strings.HasSuffix(path, ".0002") {
			t.Errorf("current log file path = %v, want sequence 0002", path)
		}
	})
}

func TestAccessLogDecorator_ServeHTTP(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	})

	decorator, err := NewAccessLogDecorator(handler, &AccessLogOptions{
		PathPrefix:    t.TempDir() + "/access",
		MaxSize:       4096,
		MaxTime:       "3m",
		FieldSequence: []string{"beginTime", "status", "duration", "remote", "method", "uri"},
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewAccessLogDecorator() error = %v", err)
	}

	recorder := httptest.NewRecorder()
	decorator.ServeHTTP(recorder, httptest.NewRequest("GET", "/somewhere", nil))

	if recorder.Code != 200 {
		t.Errorf("code = %v", recorder.Code)
	}

	decorator.Stop()

	content, err := os.ReadFile(decorator.logger.currentLogFilePath())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	for _, want := range []string{"200", "GET", "/somewhere"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("log content %q does not contain %q", content, want)
		}
	}
}
