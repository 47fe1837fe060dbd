package vrs

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// ReportRecord is one row of an experiment log.
type ReportRecord struct {
	UnitTest   string
	Experiment string

	Params Params

	// PSInvocations is the pixel shader invocation count of the frame.
	PSInvocations uint64

	CPUTime   time.Duration
	GPUTime   time.Duration
	FrameRate float64

	Percentages Percentages
}

// ReportHeader returns the column names of an experiment log.
func ReportHeader() []string {
	h := []string{
		"UnitTest", "Experiment",
		"Threshold", "K", "Env. Luma", "Weber-Fechner Constant",
		"PSInvocations", "CPUTime", "GPUTime", "FrameRate",
	}
	return append(h, rateNames[:]...)
}

// Row formats the record in ReportHeader order. Times are milliseconds.
func (r ReportRecord) Row() []string {
	row := []string{
		r.UnitTest,
		r.Experiment,
		formatFloat(r.Params.SensitivityThreshold),
		formatFloat(r.Params.QuarterRateSensitivity),
		formatFloat(r.Params.AmbientLuma),
		formatFloat(r.Params.WeberFechnerConstant),
		strconv.FormatUint(r.PSInvocations, 10),
		formatFloat(float64(r.CPUTime) / float64(time.Millisecond)),
		formatFloat(float64(r.GPUTime) / float64(time.Millisecond)),
		formatFloat(r.FrameRate),
	}
	for _, v := range r.Percentages {
		row = append(row, formatFloat(v))
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReportWriter writes experiment rows as CSV. The header is written before
// the first row.
type ReportWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewReportWriter creates a writer on w.
func NewReportWriter(w io.Writer) *ReportWriter {
	return &ReportWriter{w: csv.NewWriter(w)}
}

// Write appends one record.
func (rw *ReportWriter) Write(r ReportRecord) error {
	if !rw.wroteHeader {
		if err := rw.w.Write(ReportHeader()); err != nil {
			return err
		}
		rw.wroteHeader = true
	}
	return rw.w.Write(r.Row())
}

// Flush writes buffered rows to the underlying writer.
func (rw *ReportWriter) Flush() error {
	rw.w.Flush()
	return rw.w.Error()
}
