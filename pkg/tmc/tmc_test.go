// TMC register field helper tests
//
// Copyright (C) 2026  TMC Tools Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package tmc

import (
	"strings"
	"testing"
)

func TestFFS(t *testing.T) {
	tests := []struct {
		mask     uint32
		expected int
	}{
		{0x01, 0},
		{0x02, 1},
		{0x80, 7},
		{0xff00, 8},
		{0xff0000, 16},
		{0xff000000, 24},
		{0, 0},
	}

	for _, tt := range tests {
		if got := ffs(tt.mask); got != tt.expected {
			t.Errorf("ffs(%08x) = %d, expected %d", tt.mask, got, tt.expected)
		}
	}
}

func TestFieldHelperSetGet(t *testing.T) {
	fh := NewTMC5041FieldHelper()

	var reg uint32
	reg = fh.SetField("w0", 2, &reg, "")
	reg = fh.SetField("w1", 1, &reg, "")
	reg = fh.SetField("w2", 1, &reg, "")
	reg = fh.SetField("w3", 1, &reg, "")
	reg = fh.SetField("x1", 128, &reg, "")
	reg = fh.SetField("x2", 255, &reg, "")
	reg = fh.SetField("x3", 255, &reg, "")

	// Datasheet default segment selection
	if reg != 0xFFFF8056 {
		t.Errorf("assembled MSLUTSEL = %08x, expected ffff8056", reg)
	}

	if v := fh.GetField("x1", &reg, ""); v != 128 {
		t.Errorf("x1 = %d, expected 128", v)
	}
	if v := fh.GetField("w0", &reg, ""); v != 2 {
		t.Errorf("w0 = %d, expected 2", v)
	}
	if v := fh.GetField("x3", &reg, ""); v != 255 {
		t.Errorf("x3 = %d, expected 255", v)
	}
}

func TestFieldHelperStartRegister(t *testing.T) {
	fh := NewTMC5041FieldHelper()

	var reg uint32
	reg = fh.SetField("start_sin", 0, &reg, "")
	reg = fh.SetField("start_sin90", 247, &reg, "")

	// Datasheet default start values
	if reg != 0x00F70000 {
		t.Errorf("assembled MSLUTSTART = %08x, expected 00f70000", reg)
	}
}

func TestLookupRegister(t *testing.T) {
	fh := NewTMC5041FieldHelper()

	reg, ok := fh.LookupRegister("w0")
	if !ok || reg != "MSLUTSEL" {
		t.Errorf("LookupRegister(w0) = %q, %v; expected MSLUTSEL, true", reg, ok)
	}

	reg, ok = fh.LookupRegister("start_sin90")
	if !ok || reg != "MSLUTSTART" {
		t.Errorf("LookupRegister(start_sin90) = %q, %v; expected MSLUTSTART, true", reg, ok)
	}

	if _, ok := fh.LookupRegister("bogus"); ok {
		t.Error("expected lookup of unknown field to fail")
	}
}

func TestSignedField(t *testing.T) {
	fields := map[string]map[string]uint32{
		"REG": {"offs": 0xff << 8},
	}
	fh := NewFieldHelper(fields, []string{"offs"}, nil)

	var reg uint32
	reg = fh.SetField("offs", -16, &reg, "")
	if v := fh.GetField("offs", &reg, ""); v != -16 {
		t.Errorf("signed field round-trip = %d, expected -16", v)
	}

	reg = 0
	reg = fh.SetField("offs", 100, &reg, "")
	if v := fh.GetField("offs", &reg, ""); v != 100 {
		t.Errorf("signed field positive round-trip = %d, expected 100", v)
	}
}

func TestPrettyFormat(t *testing.T) {
	fh := NewTMC5041FieldHelper()

	s := fh.PrettyFormat("MSLUTSTART", 0x00F70000)
	if !strings.Contains(s, "start_sin90=247") {
		t.Errorf("PrettyFormat missing field value: %s", s)
	}
	if !strings.Contains(s, "00f70000") {
		t.Errorf("PrettyFormat missing raw value: %s", s)
	}

	s = fh.PrettyFormat("MSLUT0", 0x54AAB5AA)
	if !strings.Contains(s, "mslut0=0x54aab5aa") {
		t.Errorf("PrettyFormat table word: %s", s)
	}

	// Unknown register falls back to raw hex
	s = fh.PrettyFormat("NOPE", 0x1234)
	if !strings.Contains(s, "1234") {
		t.Errorf("PrettyFormat fallback: %s", s)
	}
}

func TestGetRegFields(t *testing.T) {
	fh := NewTMC5041FieldHelper()

	fields := fh.GetRegFields("MSLUTSEL", 0xFFFF8056)
	expected := map[string]int32{
		"w0": 2, "w1": 1, "w2": 1, "w3": 1,
		"x1": 128, "x2": 255, "x3": 255,
	}
	for name, want := range expected {
		if got := fields[name]; got != want {
			t.Errorf("field %s = %d, expected %d", name, got, want)
		}
	}
}

func TestRegisterAddress(t *testing.T) {
	tests := []struct {
		name string
		addr uint8
	}{
		{"MSLUT0", 0x60},
		{"MSLUT7", 0x67},
		{"MSLUTSEL", 0x68},
		{"MSLUTSTART", 0x69},
	}

	for _, tt := range tests {
		addr, err := RegisterAddress(tt.name)
		if err != nil {
			t.Fatalf("RegisterAddress(%s): %v", tt.name, err)
		}
		if addr != tt.addr {
			t.Errorf("RegisterAddress(%s) = %02x, expected %02x", tt.name, addr, tt.addr)
		}
		if name := RegisterName(tt.addr); name != tt.name {
			t.Errorf("RegisterName(%02x) = %s, expected %s", tt.addr, name, tt.name)
		}
	}

	if _, err := RegisterAddress("CHOPCONF"); err == nil {
		t.Error("expected error for register outside the table subsystem")
	}

	if name := RegisterName(0x6C); name != "0x6C" {
		t.Errorf("RegisterName(0x6C) = %s, expected hex placeholder", name)
	}
}

func TestMicrostepRegisterOrder(t *testing.T) {
	if len(MicrostepRegisterOrder) != 10 {
		t.Fatalf("expected 10 registers in upload order, got %d", len(MicrostepRegisterOrder))
	}
	if MicrostepRegisterOrder[0] != "MSLUT0" {
		t.Errorf("upload order must start with MSLUT0, got %s", MicrostepRegisterOrder[0])
	}
	if MicrostepRegisterOrder[8] != "MSLUTSEL" || MicrostepRegisterOrder[9] != "MSLUTSTART" {
		t.Errorf("upload order must end with MSLUTSEL, MSLUTSTART: %v", MicrostepRegisterOrder)
	}
}
