package impairment

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var csvHeader = []string{"time", "bandwidth", "latency", "packet_loss_rate", "packet_corruption_rate"}

// State owns the five per-dimension providers, the currently effective
// sample for each continuous dimension, and the open CSV trace. It is
// not safe for concurrent use; the pipeline event loop is its only
// caller.
type State struct {
	dims Dimensions

	bandwidth float64
	latency   float64
	loss      float64
	corr      float64

	updateEvery float64
	startTime   time.Time
	lastUpdate  time.Time

	dir string
	f   *os.File
	w   *csv.Writer
}

// NewState creates dir (which must not already exist), opens data.csv
// with the fixed trace header, samples each continuous provider once,
// and writes the initial row. now is the wall-clock time to treat as
// t=0 for the trace.
func NewState(dir string, updateEvery float64, dims Dimensions, now time.Time) (*State, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("impairment: run directory %s already exists", dir)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("impairment: statting run directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("impairment: creating run directory %s: %w", dir, err)
	}

	f, err := os.Create(filepath.Join(dir, "data.csv"))
	if err != nil {
		return nil, fmt.Errorf("impairment: creating data.csv: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("impairment: writing csv header: %w", err)
	}

	s := &State{
		dims:        dims,
		updateEvery: updateEvery,
		startTime:   now,
		lastUpdate:  now,
		dir:         dir,
		f:           f,
		w:           w,
	}

	s.bandwidth = s.dims.Bandwidth.Sample()
	s.latency = s.dims.Latency.Sample()
	s.loss = s.dims.Loss.Sample()
	s.corr = s.dims.Corruption.Sample()

	if err := s.writeRow(0); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *State) writeRow(elapsed float64) error {
	row := []string{
		strconv.FormatFloat(elapsed, 'f', -1, 64),
		strconv.FormatFloat(s.bandwidth, 'f', -1, 64),
		strconv.FormatFloat(s.latency, 'f', -1, 64),
		strconv.FormatFloat(s.loss, 'f', -1, 64),
		strconv.FormatFloat(s.corr, 'f', -1, 64),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("impairment: writing csv row: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}

// Update resamples the four continuous dimensions and appends a trace
// row if at least updateEvery seconds have elapsed since the last
// refresh and started is true. Before the first packet arrives
// (started == false) this is a no-op, so runs are comparable regardless
// of how long the proxy idles before traffic begins.
func (s *State) Update(started bool, now time.Time) error {
	if !started {
		return nil
	}
	if now.Sub(s.lastUpdate).Seconds() < s.updateEvery {
		return nil
	}
	s.lastUpdate = now

	s.bandwidth = s.dims.Bandwidth.Sample()
	s.latency = s.dims.Latency.Sample()
	s.loss = s.dims.Loss.Sample()
	s.corr = s.dims.Corruption.Sample()

	return s.writeRow(s.lastUpdate.Sub(s.startTime).Seconds())
}

// Bandwidth returns the current bandwidth sample in bytes per second,
// unclamped (bandwidth has no [0,1] range to clamp).
func (s *State) Bandwidth() float64 { return s.bandwidth }

// Latency returns the current one-way latency sample in seconds.
func (s *State) Latency() float64 { return s.latency }

// Loss returns the current packet-loss probability, clamped to [0,1].
// The CSV trace retains the unclamped raw value.
func (s *State) Loss() float64 { return clamp01(s.loss) }

// CorruptionRate returns the current per-packet corruption probability,
// clamped to [0,1].
func (s *State) CorruptionRate() float64 { return clamp01(s.corr) }

// CorruptionMultiplicity samples a fresh corruption count for one
// corrupted packet. Unlike the four continuous dimensions, this is
// drawn per corrupted packet rather than on the refresh cadence.
func (s *State) CorruptionMultiplicity() int {
	return s.dims.Multiplicity.SampleInt()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Close flushes and closes the CSV file.
func (s *State) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
