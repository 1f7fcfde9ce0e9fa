// Package storage persists session runs as flat artifacts: one
// directory per run holding metadata.json and ticks.csv. The analyze
// and export commands read these back.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/protocol"
	"github.com/san-kum/coilsim/internal/session"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string            `json:"id"`
	Protocol    protocol.Protocol `json:"protocol"`
	Timestamp   time.Time         `json:"timestamp"`
	Seed        int64             `json:"seed"`
	Dt          float64           `json:"dt"`
	Duration    float64           `json:"duration"`
	Pulses      int               `json:"pulses"`
	Diagnostics map[string]int    `json:"diagnostics,omitempty"`
}

// Recorder captures every tick of a session for saving. It implements
// session.Observer.
type Recorder struct {
	Times []float64
	Ticks []session.TickOutput
}

func (r *Recorder) OnTick(out session.TickOutput, t float64) {
	r.Times = append(r.Times, t)
	r.Ticks = append(r.Ticks, out)
}

func (r *Recorder) TotalPulses() int {
	total := 0
	for _, tk := range r.Ticks {
		total += tk.Pulses
	}
	return total
}

var tickHeader = []string{
	"time", "px", "py", "pz", "qw", "qx", "qy", "qz",
	"pulses", "in_iti", "committed",
}

func (s *Store) Save(meta RunMetadata, rec *Recorder) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Protocol.Type, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Pulses = rec.TotalPulses()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "ticks.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(tickHeader); err != nil {
		return "", err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	b := func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	}
	for i, tk := range rec.Ticks {
		row := []string{
			f(rec.Times[i]),
			f(tk.Position.X()), f(tk.Position.Y()), f(tk.Position.Z()),
			f(tk.Orientation.W), f(tk.Orientation.X()), f(tk.Orientation.Y()), f(tk.Orientation.Z()),
			strconv.Itoa(tk.Pulses),
			b(tk.InInterTrain),
			b(tk.Committed),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// TicksCSV opens a run's raw tick log for streaming. The caller closes.
func (s *Store) TicksCSV(runID string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.baseDir, runID, "ticks.csv"))
}

// LoadTicks reads a run's tick log back into memory.
func (s *Store) LoadTicks(runID string) ([]session.TickOutput, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "ticks.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []session.TickOutput{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	ticks := make([]session.TickOutput, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < len(tickHeader) {
			continue
		}
		vals := make([]float64, 9)
		bad := false
		for i := range vals {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				bad = true
				break
			}
			vals[i] = v
		}
		if bad {
			continue
		}
		times = append(times, vals[0])
		ticks = append(ticks, session.TickOutput{
			Position:     mgl64.Vec3{vals[1], vals[2], vals[3]},
			Orientation:  mgl64.Quat{W: vals[4], V: mgl64.Vec3{vals[5], vals[6], vals[7]}},
			Pulses:       int(vals[8]),
			InInterTrain: record[9] == "1",
			Committed:    record[10] == "1",
		})
	}
	return ticks, times, nil
}
