package vrs

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"
)

func TestReportHeader(t *testing.T) {
	h := ReportHeader()
	want := []string{
		"UnitTest", "Experiment", "Threshold", "K", "Env. Luma", "Weber-Fechner Constant",
		"PSInvocations", "CPUTime", "GPUTime", "FrameRate",
		"1x1", "1x2", "2x1", "2x2", "2x4", "4x2", "4x4",
	}
	if len(h) != len(want) {
		t.Fatalf("len = %d, want %d", len(h), len(want))
	}
	for i := range want {
		if h[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, h[i], want[i])
		}
	}
}

func TestReportWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := NewReportWriter(&buf)

	rec := ReportRecord{
		UnitTest:      "scene1",
		Experiment:    "baseline",
		Params:        DefaultParams(),
		PSInvocations: 12345,
		CPUTime:       1500 * time.Microsecond,
		GPUTime:       4 * time.Millisecond,
		FrameRate:     60,
		Percentages:   Percentages{50, 0, 0, 30, 0, 0, 20},
	}
	for range 2 {
		if err := rw.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := rw.Flush(); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	want := []string{"scene1", "baseline", "0.5", "2.13", "0.05", "1", "12345", "1.5", "4", "60", "50", "0", "0", "30", "0", "0", "20"}
	for i := range want {
		if rows[1][i] != want[i] {
			t.Errorf("row[%d] = %q, want %q", i, rows[1][i], want[i])
		}
	}
}
