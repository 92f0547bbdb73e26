// Microstep lookup table encoding for TMC stepper drivers
//
// A quarter period of the current waveform is stored as 256 sample points.
// The hardware keeps one bit per position plus up to four contiguous
// segments, each selecting a width control W. A table bit b in a segment
// with width W reproduces the sample delta b + W - 1, so each segment can
// represent exactly two adjacent delta values. Encoding derives the bits,
// the segment boundaries X1..X3 and the start values from the samples and
// rejects any waveform the format cannot hold losslessly.
//
// Copyright (C) 2026  TMC Tools Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package microsteps

import (
	"fmt"
	"strings"

	"tmc-tools/pkg/errors"
	"tmc-tools/pkg/tmc"
)

const (
	// WaveformLen is the number of samples in one quarter wave.
	WaveformLen = 256

	// SampleMax is the largest representable amplitude value.
	SampleMax = 255

	// AmplitudeCeiling is the highest amplitude that leaves headroom for
	// the SpreadCycle chopper. Exceeding it is allowed but reported as a
	// warning.
	AmplitudeCeiling = 247

	// maxSegments is the number of width segments the register format
	// supports (three transition points).
	maxSegments = 4
)

// Table is the immutable result of encoding a waveform.
type Table struct {
	waveform      [WaveformLen]int
	reconstructed [WaveformLen]int
	mslut         [8]uint32
	mslutsel      uint32
	mslutstart    uint32
	warnings      []string
}

// RegisterWrite is one register value in device upload order.
type RegisterWrite struct {
	Name    string
	Address uint8
	Value   uint32
}

// segment is a contiguous run of delta positions sharing one delta pair
// {w-1, w}.
type segment struct {
	start int // first delta position
	w     int // width control
}

// EncodeWaveform encodes 256 quarter wave samples into the microstep
// table register format. The samples must each lie in [0, 255] and every
// consecutive difference must lie in {0, 1, 2, 3}.
func EncodeWaveform(samples []int) (*Table, error) {
	if len(samples) != WaveformLen {
		return nil, errors.ShapeError("waveform must contain %d samples, got %d", WaveformLen, len(samples))
	}

	t := &Table{}
	maxSample := 0
	for i, v := range samples {
		if v < 0 || v > SampleMax {
			return nil, errors.ShapeError("sample %d out of range [0, %d]: %d", i, SampleMax, v)
		}
		if v > maxSample {
			maxSample = v
		}
		t.waveform[i] = v
	}
	if maxSample > AmplitudeCeiling {
		t.warnings = append(t.warnings,
			fmt.Sprintf("amplitude %d exceeds %d and may overflow when combined with SpreadCycle", maxSample, AmplitudeCeiling))
	}

	deltas, err := computeDeltas(&t.waveform)
	if err != nil {
		return nil, err
	}

	segments, err := splitSegments(deltas)
	if err != nil {
		return nil, err
	}

	// Table bits: 1 selects the upper value of the segment's delta pair.
	// Bit 255 has no corresponding delta and stays 0.
	for i, d := range deltas {
		if d == segmentAt(segments, i).w {
			t.mslut[i/32] |= 1 << (i % 32)
		}
	}

	x := [3]int{255, 255, 255}
	for k := 1; k < len(segments); k++ {
		x[k-1] = segments[k].start
	}
	w := [4]int{}
	for k := 0; k < 4; k++ {
		idx := k
		if idx >= len(segments) {
			idx = len(segments) - 1
		}
		w[k] = segments[idx].w
	}
	t.mslutsel = buildMSLUTSEL(w[0], w[1], w[2], w[3], x[0], x[1], x[2])

	// The continuation value seeds the descending quarter: one more step
	// past the last sample, using the last segment's implied delta.
	startSin90 := t.waveform[WaveformLen-1] + segments[len(segments)-1].w - 1
	if startSin90 > SampleMax {
		startSin90 = SampleMax
	}
	t.mslutstart = buildMSLUTSTART(t.waveform[0], startSin90)

	decoded := DecodeRegisters(t.mslut, t.mslutsel, t.mslutstart)
	for i := range t.reconstructed {
		t.reconstructed[i] = decoded[i]
		if decoded[i] != t.waveform[i] {
			return nil, errors.InternalConsistencyError(
				"reconstruction mismatch at sample %d: encoded %d, decoded %d", i, t.waveform[i], decoded[i])
		}
	}

	return t, nil
}

// computeDeltas returns the 255 consecutive sample differences.
func computeDeltas(w *[WaveformLen]int) ([]int, error) {
	deltas := make([]int, WaveformLen-1)
	for i := 0; i < WaveformLen-1; i++ {
		d := w[i+1] - w[i]
		if d < 0 {
			return nil, errors.EncodingError("waveform not monotone: sample %d to %d decreases by %d", i, i+1, -d)
		}
		if d > 3 {
			return nil, errors.EncodingError("step from sample %d to %d too large: %d (maximum 3)", i, i+1, d)
		}
		deltas[i] = d
	}
	return deltas, nil
}

// splitSegments partitions the delta positions into contiguous runs whose
// values fit one adjacent pair each. A run of a single delta value d maps
// to the pair {d, d+1} except for d=3 which only fits {2, 3}.
func splitSegments(deltas []int) ([]segment, error) {
	type span struct {
		start, lo, hi int
	}
	var spans []span
	cur := span{start: 0, lo: deltas[0], hi: deltas[0]}
	for i := 1; i < len(deltas); i++ {
		d := deltas[i]
		lo, hi := cur.lo, cur.hi
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
		if hi-lo <= 1 {
			cur.lo, cur.hi = lo, hi
			continue
		}
		spans = append(spans, cur)
		cur = span{start: i, lo: d, hi: d}
	}
	spans = append(spans, cur)

	if len(spans) > maxSegments {
		return nil, errors.EncodingError(
			"waveform needs %d delta segments, the table format supports %d", len(spans), maxSegments)
	}

	segments := make([]segment, len(spans))
	for k, s := range spans {
		w := s.lo + 1
		if s.lo == s.hi && s.lo == 3 {
			w = 3
		}
		segments[k] = segment{start: s.start, w: w}
	}
	return segments, nil
}

// segmentAt returns the segment containing delta position i.
func segmentAt(segments []segment, i int) segment {
	for k := len(segments) - 1; k > 0; k-- {
		if i >= segments[k].start {
			return segments[k]
		}
	}
	return segments[0]
}

// buildMSLUTSEL packs the width controls and segment boundaries.
func buildMSLUTSEL(w0, w1, w2, w3, x1, x2, x3 int) uint32 {
	return uint32((w0 & 0x3) | ((w1 & 0x3) << 2) | ((w2 & 0x3) << 4) | ((w3 & 0x3) << 6) |
		((x1 & 0xff) << 8) | ((x2 & 0xff) << 16) | ((x3 & 0xff) << 24))
}

// buildMSLUTSTART packs the start and continuation amplitudes.
func buildMSLUTSTART(startSin, startSin90 int) uint32 {
	return uint32((startSin & 0xff) | ((startSin90 & 0xff) << 16))
}

// MSLUT returns the eight packed table words.
func (t *Table) MSLUT() [8]uint32 {
	return t.mslut
}

// MSLUTSEL returns the packed segment selection word.
func (t *Table) MSLUTSEL() uint32 {
	return t.mslutsel
}

// MSLUTSTART returns the packed start value word.
func (t *Table) MSLUTSTART() uint32 {
	return t.mslutstart
}

// Waveform returns a copy of the encoded input samples.
func (t *Table) Waveform() []int {
	w := make([]int, WaveformLen)
	copy(w, t.waveform[:])
	return w
}

// QuarterWave returns the samples reconstructed from the registers. For a
// successfully encoded table this equals Waveform.
func (t *Table) QuarterWave() []int {
	w := make([]int, WaveformLen)
	copy(w, t.reconstructed[:])
	return w
}

// FullWave expands the quarter wave to a full 1024 step electrical period
// using the sine symmetries.
func (t *Table) FullWave() []int {
	full := make([]int, 4*WaveformLen)
	for i := 0; i < WaveformLen; i++ {
		v := t.reconstructed[i]
		m := t.reconstructed[WaveformLen-1-i]
		full[i] = v
		full[WaveformLen+i] = m
		full[2*WaveformLen+i] = -v
		full[3*WaveformLen+i] = -m
	}
	return full
}

// Warnings returns advisory diagnostics recorded during encoding.
func (t *Table) Warnings() []string {
	w := make([]string, len(t.warnings))
	copy(w, t.warnings)
	return w
}

// Registers returns the ten register values in device upload order.
func (t *Table) Registers() []RegisterWrite {
	regs := make([]RegisterWrite, 0, len(tmc.MicrostepRegisterOrder))
	for i, name := range tmc.MicrostepRegisterOrder {
		var value uint32
		switch {
		case i < 8:
			value = t.mslut[i]
		case name == "MSLUTSEL":
			value = t.mslutsel
		default:
			value = t.mslutstart
		}
		regs = append(regs, RegisterWrite{
			Name:    name,
			Address: tmc.TMC5041Registers[name],
			Value:   value,
		})
	}
	return regs
}

// Dump returns a human-readable register listing with decoded fields.
func (t *Table) Dump() string {
	fh := tmc.NewTMC5041FieldHelper()
	var sb strings.Builder
	for _, r := range t.Registers() {
		sb.WriteString(fh.PrettyFormat(r.Name, r.Value))
		sb.WriteByte('\n')
	}
	return sb.String()
}
