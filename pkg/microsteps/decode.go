// Microstep table decoding
//
// Copyright (C) 2026  TMC Tools Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package microsteps

// DecodeRegisters reconstructs the 256 quarter wave samples from raw
// register values. The first sample is START_SIN; each following sample
// adds bit + W - 1 where W is the width control of the segment covering
// the delta position. Registers that did not come from EncodeWaveform may
// reconstruct values outside [0, 255]; no range check is applied.
func DecodeRegisters(mslut [8]uint32, mslutsel, mslutstart uint32) []int {
	w := [4]int{
		int(mslutsel & 0x3),
		int((mslutsel >> 2) & 0x3),
		int((mslutsel >> 4) & 0x3),
		int((mslutsel >> 6) & 0x3),
	}
	x1 := int((mslutsel >> 8) & 0xff)
	x2 := int((mslutsel >> 16) & 0xff)
	x3 := int((mslutsel >> 24) & 0xff)

	samples := make([]int, WaveformLen)
	samples[0] = int(mslutstart & 0xff)
	for i := 0; i < WaveformLen-1; i++ {
		bit := int((mslut[i/32] >> (i % 32)) & 1)
		zone := 0
		switch {
		case i >= x3:
			zone = 3
		case i >= x2:
			zone = 2
		case i >= x1:
			zone = 1
		}
		samples[i+1] = samples[i] + bit + w[zone] - 1
	}
	return samples
}

// StartSin extracts the START_SIN field from a MSLUTSTART value.
func StartSin(mslutstart uint32) int {
	return int(mslutstart & 0xff)
}

// StartSin90 extracts the START_SIN90 field from a MSLUTSTART value.
func StartSin90(mslutstart uint32) int {
	return int((mslutstart >> 16) & 0xff)
}
