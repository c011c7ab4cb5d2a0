package payload_extractor

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestFormValueArgsExtractor_Extract(t *testing.T) {
	type want struct {
		value interface{}
		args  interface{}
	}
	tests := []struct {
		name   string
		target string
		body   string
		want   want
	}{
		{"urlencoded body", "/", "value=v&args=a", want{"v", "a"}},
		{"query string", "/?value=v&args=a", "", want{"v", "a"}},
		{"missing value", "/", "args=a", want{nil, "a"}},
		{"missing args", "/", "value=v", want{"v", nil}},
		{"unknown keys ignored", "/", "value=v&args=a&extra=1", want{"v", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest("POST", tt.target, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				req = httptest.NewRequest("GET", tt.target, nil)
			}

			value, args, err := NewFormValueArgsExtractor(req).Extract()
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}

			if !reflect.DeepEqual(value, tt.want.value) {
				t.Errorf("Extract() value = %v, want %v", value, tt.want.value)
			}

			if !reflect.DeepEqual(args, tt.want.args) {
				t.Errorf("Extract() args = %v, want %v", args, tt.want.args)
			}
		})
	}
}
