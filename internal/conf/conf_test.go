package conf

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{`"5s"`, 5 * time.Second},
		{`"1m30s"`, 90 * time.Second},
		{`"3600"`, time.Hour},
		{`20`, 20 * time.Second},
		{`0.5`, 500 * time.Millisecond},
	}
	for _, tc := range cases {
		var d Duration
		if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if d.AsDuration() != tc.want {
			t.Errorf("unmarshal %s = %v, want %v", tc.in, d.AsDuration(), tc.want)
		}
	}
}

func TestDuration_UnmarshalJSONRejectsGarbage(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Fatalf("expected error for boolean duration")
	}
}

func TestDuration_NilAsDuration(t *testing.T) {
	var d *Duration
	if d.AsDuration() != 0 {
		t.Fatalf("nil duration should be zero")
	}
}

func TestBootstrap_Decode(t *testing.T) {
	raw := `{
		"app": {"name": "moviestore", "version": "1.0.0", "log_level": "debug"},
		"server": {"http": {"addr": "0.0.0.0:8000", "timeout": "5s", "cors_origins": ["*"], "rate_limit_per_minute": 100}},
		"data": {"redis": {"addr": "localhost:6379", "ttl": "3600s"}},
		"ingest": {"queue_url": "http://queue", "max_messages": 10, "wait_time": "20s"}
	}`
	var bc Bootstrap
	if err := json.Unmarshal([]byte(raw), &bc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bc.Server.Http.Timeout.AsDuration() != 5*time.Second {
		t.Errorf("timeout = %v", bc.Server.Http.Timeout.AsDuration())
	}
	if bc.Data.Redis.Ttl.AsDuration() != time.Hour {
		t.Errorf("ttl = %v", bc.Data.Redis.Ttl.AsDuration())
	}
	if bc.Ingest.MaxMessages != 10 || bc.Ingest.WaitTime.AsDuration() != 20*time.Second {
		t.Errorf("ingest = %+v", bc.Ingest)
	}
	if bc.Server.Http.RateLimitPerMinute != 100 || len(bc.Server.Http.CorsOrigins) != 1 {
		t.Errorf("http = %+v", bc.Server.Http)
	}
}
