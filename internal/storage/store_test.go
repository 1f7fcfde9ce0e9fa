package storage

import (
	"io"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/coilsim/internal/protocol"
	"github.com/san-kum/coilsim/internal/session"
)

func sampleRecorder() *Recorder {
	rec := &Recorder{}
	for i := 0; i < 20; i++ {
		t := float64(i) * 0.05
		rec.OnTick(session.TickOutput{
			Position:     mgl64.Vec3{0.01 * float64(i), 0.09, 0.002},
			Orientation:  mgl64.QuatIdent(),
			Pulses:       i % 2,
			InInterTrain: i > 15,
			Committed:    i%3 == 0,
		}, t)
	}
	return rec
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	rec := sampleRecorder()
	meta := RunMetadata{
		Protocol: *protocol.GetPreset("depression-10hz"),
		Seed:     42,
		Dt:       0.05,
		Duration: 1.0,
	}
	runID, err := st.Save(meta, rec)
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ID != runID {
		t.Errorf("loaded ID %q, want %q", loaded.ID, runID)
	}
	if loaded.Protocol.Frequency != 10 || loaded.Seed != 42 {
		t.Errorf("metadata did not round-trip: %+v", loaded)
	}
	if loaded.Pulses != rec.TotalPulses() {
		t.Errorf("pulse total %d, want %d", loaded.Pulses, rec.TotalPulses())
	}

	ticks, times, err := st.LoadTicks(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ticks) != len(rec.Ticks) || len(times) != len(rec.Times) {
		t.Fatalf("tick count %d/%d, want %d", len(ticks), len(times), len(rec.Ticks))
	}
	for i := range ticks {
		if math.Abs(times[i]-rec.Times[i]) > 1e-6 {
			t.Fatalf("time %d: %v vs %v", i, times[i], rec.Times[i])
		}
		if ticks[i].Position.Sub(rec.Ticks[i].Position).Len() > 1e-5 {
			t.Fatalf("position %d drifted", i)
		}
		if ticks[i].Pulses != rec.Ticks[i].Pulses ||
			ticks[i].InInterTrain != rec.Ticks[i].InInterTrain ||
			ticks[i].Committed != rec.Ticks[i].Committed {
			t.Fatalf("flags %d did not round-trip", i)
		}
	}
}

func TestTicksCSVStream(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := st.Save(RunMetadata{Protocol: *protocol.GetPreset("ctbs-600")}, sampleRecorder())
	if err != nil {
		t.Fatal(err)
	}

	r, err := st.TicksCSV(runID)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 21 {
		t.Fatalf("streamed %d lines, want header + 20 ticks", len(lines))
	}
	if !strings.HasPrefix(lines[0], "time,px,py,pz") {
		t.Errorf("unexpected header %q", lines[0])
	}
}

func TestList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("fresh store lists %d runs", len(runs))
	}

	meta := RunMetadata{Protocol: *protocol.GetPreset("itbs-600")}
	if _, err := st.Save(meta, sampleRecorder()); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("listed %d runs, want 1", len(runs))
	}
	if runs[0].Protocol.Type != protocol.ITBS {
		t.Errorf("listed protocol type %q", runs[0].Protocol.Type)
	}
}

func TestListMissingDir(t *testing.T) {
	st := New("/nonexistent/coilsim-test")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("missing base dir should not error: %v", err)
	}
	if len(runs) != 0 {
		t.Error("missing base dir listed runs")
	}
}
