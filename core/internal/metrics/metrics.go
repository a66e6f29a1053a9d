// Package metrics sends one point per invocation to InfluxDB.
package metrics

import (
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/pkg/errors"

	"sosfetch/core/internal/sosreport"
)

// Measurement is the InfluxDB measurement name.
const Measurement = "sosfetch_invocation"

type Config struct {
	Server string
	DB     string
	User   string
	Pass   string
}

type Recorder struct {
	influx client.Client
	db     string
}

// New returns a Recorder writing to cfg.Server, e.g. http://influx:8086.
func New(cfg Config) (*Recorder, error) {
	if cfg.Server == "" {
		return nil, errors.New("influxdb server is not configured")
	}
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.Server,
		Username: cfg.User,
		Password: cfg.Pass,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating influxdb client")
	}
	return &Recorder{influx: c, db: cfg.DB}, nil
}

// Record implements sosreport.Recorder.
func (r *Recorder) Record(e sosreport.Entry) error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: r.db, Precision: "ms"})
	if err != nil {
		return err
	}
	tags := map[string]string{"tool": e.Tool, "host": e.Host, "status": e.Status}
	if tags["host"] == "" {
		tags["host"] = "localhost"
	}
	if e.ErrorKind != "" {
		tags["kind"] = string(e.ErrorKind)
	}
	fields := map[string]interface{}{
		"duration_ms": e.Duration.Milliseconds(),
		"size_bytes":  e.SizeBytes,
	}
	point, err := client.NewPoint(Measurement, tags, fields, e.StartedAt)
	if err != nil {
		return err
	}
	bp.AddPoint(point)
	return errors.Wrap(r.influx.Write(bp), "writing invocation metrics")
}

func (r *Recorder) Close() error {
	return r.influx.Close()
}
