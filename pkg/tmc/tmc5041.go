// TMC5041 microstep table register definitions
//
// Only the microstep lookup table subsystem is described here. The same
// layout is shared by the TMC2130, TMC5072 and TMC5160 families.
//
// Copyright (C) 2026  TMC Tools Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package tmc

import "fmt"

// TMC5041Registers maps microstep table register names to addresses.
var TMC5041Registers = map[string]uint8{
	"MSLUT0":     0x60,
	"MSLUT1":     0x61,
	"MSLUT2":     0x62,
	"MSLUT3":     0x63,
	"MSLUT4":     0x64,
	"MSLUT5":     0x65,
	"MSLUT6":     0x66,
	"MSLUT7":     0x67,
	"MSLUTSEL":   0x68,
	"MSLUTSTART": 0x69,
}

// MicrostepRegisterOrder is the register write order when uploading a
// table: all eight table words first, then the segment selection, then
// the start values.
var MicrostepRegisterOrder = []string{
	"MSLUT0", "MSLUT1", "MSLUT2", "MSLUT3",
	"MSLUT4", "MSLUT5", "MSLUT6", "MSLUT7",
	"MSLUTSEL", "MSLUTSTART",
}

// TMC5041Fields defines the microstep table register fields for TMC5041.
var TMC5041Fields = map[string]map[string]uint32{
	"MSLUT0": {"mslut0": 0xffffffff},
	"MSLUT1": {"mslut1": 0xffffffff},
	"MSLUT2": {"mslut2": 0xffffffff},
	"MSLUT3": {"mslut3": 0xffffffff},
	"MSLUT4": {"mslut4": 0xffffffff},
	"MSLUT5": {"mslut5": 0xffffffff},
	"MSLUT6": {"mslut6": 0xffffffff},
	"MSLUT7": {"mslut7": 0xffffffff},
	"MSLUTSEL": {
		"w0": 0x03 << 0,
		"w1": 0x03 << 2,
		"w2": 0x03 << 4,
		"w3": 0x03 << 6,
		"x1": 0xff << 8,
		"x2": 0xff << 16,
		"x3": 0xff << 24,
	},
	"MSLUTSTART": {
		"start_sin":   0xff << 0,
		"start_sin90": 0xff << 16,
	},
}

// tmc5041FieldFormatters renders the full table words as hex.
var tmc5041FieldFormatters = map[string]func(int32) string{
	"mslut0": formatHex32,
	"mslut1": formatHex32,
	"mslut2": formatHex32,
	"mslut3": formatHex32,
	"mslut4": formatHex32,
	"mslut5": formatHex32,
	"mslut6": formatHex32,
	"mslut7": formatHex32,
}

func formatHex32(v int32) string {
	return fmt.Sprintf("0x%08x", uint32(v))
}

// NewTMC5041FieldHelper creates a field helper for the TMC5041 microstep
// table registers.
func NewTMC5041FieldHelper() *FieldHelper {
	return NewFieldHelper(TMC5041Fields, nil, tmc5041FieldFormatters)
}

// RegisterAddress returns the address of a named microstep table register.
func RegisterAddress(name string) (uint8, error) {
	addr, ok := TMC5041Registers[name]
	if !ok {
		return 0, fmt.Errorf("unknown register %q", name)
	}
	return addr, nil
}

// RegisterName returns the name of a microstep table register address, or
// a hex placeholder for addresses outside the subsystem.
func RegisterName(addr uint8) string {
	for name, a := range TMC5041Registers {
		if a == addr {
			return name
		}
	}
	return fmt.Sprintf("0x%02X", addr)
}
