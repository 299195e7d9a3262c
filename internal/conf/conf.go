// Package conf holds the configuration tree shared by the api and processor
// binaries. It is populated by kratos config from configs/*.yaml, where every
// value can be overridden through ${ENV_NAME:default} placeholders.
package conf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Bootstrap is the root of the configuration tree.
type Bootstrap struct {
	App    *App    `json:"app"`
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	Ingest *Ingest `json:"ingest"`
}

// App describes the running service.
type App struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	LogLevel    string `json:"log_level"`
}

// Server groups the HTTP listeners. Http serves the public API, Admin serves
// the processor's health and metrics endpoints.
type Server struct {
	Http  *Server_HTTP `json:"http"`
	Admin *Server_HTTP `json:"admin"`
}

type Server_HTTP struct {
	Network            string    `json:"network"`
	Addr               string    `json:"addr"`
	Timeout            *Duration `json:"timeout"`
	CorsOrigins        []string  `json:"cors_origins"`
	RateLimitPerMinute int       `json:"rate_limit_per_minute"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
}

type Data_Database struct {
	Driver          string    `json:"driver"`
	Source          string    `json:"source"`
	MaxIdleConns    int       `json:"max_idle_conns"`
	MaxOpenConns    int       `json:"max_open_conns"`
	ConnMaxLifetime *Duration `json:"conn_max_lifetime"`
	AutoMigrate     bool      `json:"auto_migrate"`
}

type Data_Redis struct {
	Addr         string    `json:"addr"`
	Password     string    `json:"password"`
	Db           int       `json:"db"`
	DialTimeout  *Duration `json:"dial_timeout"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
	// Ttl is the default lifetime of cache entries.
	Ttl *Duration `json:"ttl"`
}

// Ingest configures the queue consumer and the object store it downloads from.
type Ingest struct {
	Region       string    `json:"region"`
	Endpoint     string    `json:"endpoint"`
	QueueUrl     string    `json:"queue_url"`
	Bucket       string    `json:"bucket"`
	MaxMessages  int32     `json:"max_messages"`
	WaitTime     *Duration `json:"wait_time"`
	IdleBackoff  *Duration `json:"idle_backoff"`
	ErrorBackoff *Duration `json:"error_backoff"`
	EventSource  string    `json:"event_source"`
}

// Duration is a time.Duration that decodes from "1m30s" style strings or from
// a bare number of seconds.
type Duration struct {
	time.Duration
}

// NewDuration wraps d.
func NewDuration(d time.Duration) *Duration {
	return &Duration{Duration: d}
}

// AsDuration returns the wrapped value; a nil receiver yields zero.
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value * float64(time.Second))
		return nil
	case string:
		value = strings.TrimSpace(value)
		if secs, err := strconv.ParseFloat(value, 64); err == nil {
			d.Duration = time.Duration(secs * float64(time.Second))
			return nil
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}
