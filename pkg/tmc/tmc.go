// TMC stepper driver register field access
//
// Copyright (C) 2026  TMC Tools Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package tmc

import (
	"fmt"
	"sort"
	"strings"
)

// ffs returns the position of the first bit set in a mask.
func ffs(mask uint32) int {
	if mask == 0 {
		return 0
	}
	pos := 0
	for (mask & 1) == 0 {
		mask >>= 1
		pos++
	}
	return pos
}

// bitLength returns the number of bits needed to represent a value.
func bitLength(v uint32) int {
	bits := 0
	for v > 0 {
		bits++
		v >>= 1
	}
	return bits
}

// FieldHelper handles TMC register field manipulation.
type FieldHelper struct {
	AllFields       map[string]map[string]uint32 // register -> field -> mask
	SignedFields    map[string]bool
	FieldFormatters map[string]func(int32) string
	Registers       map[string]uint32
	FieldToRegister map[string]string
}

// NewFieldHelper creates a new field helper.
func NewFieldHelper(allFields map[string]map[string]uint32, signedFields []string, formatters map[string]func(int32) string) *FieldHelper {
	fh := &FieldHelper{
		AllFields:       allFields,
		SignedFields:    make(map[string]bool),
		FieldFormatters: formatters,
		Registers:       make(map[string]uint32),
		FieldToRegister: make(map[string]string),
	}

	for _, sf := range signedFields {
		fh.SignedFields[sf] = true
	}

	if fh.FieldFormatters == nil {
		fh.FieldFormatters = make(map[string]func(int32) string)
	}

	// Build field to register mapping
	for regName, fields := range allFields {
		for fieldName := range fields {
			fh.FieldToRegister[fieldName] = regName
		}
	}

	return fh
}

// LookupRegister returns the register name for a field.
func (fh *FieldHelper) LookupRegister(fieldName string) (string, bool) {
	reg, ok := fh.FieldToRegister[fieldName]
	return reg, ok
}

// GetField returns the value of a register field.
func (fh *FieldHelper) GetField(fieldName string, regValue *uint32, regName string) int32 {
	if regName == "" {
		regName = fh.FieldToRegister[fieldName]
	}

	var val uint32
	if regValue != nil {
		val = *regValue
	} else {
		val = fh.Registers[regName]
	}

	mask := fh.AllFields[regName][fieldName]
	shift := ffs(mask)
	fieldValue := int32((val & mask) >> shift)

	// Handle signed fields
	if fh.SignedFields[fieldName] {
		if ((val & mask) << 1) > mask {
			bits := bitLength(uint32(fieldValue))
			fieldValue -= (1 << bits)
		}
	}

	return fieldValue
}

// SetField sets a field value and returns the new register value.
func (fh *FieldHelper) SetField(fieldName string, fieldValue int32, regValue *uint32, regName string) uint32 {
	if regName == "" {
		regName = fh.FieldToRegister[fieldName]
	}

	var val uint32
	if regValue != nil {
		val = *regValue
	} else {
		val = fh.Registers[regName]
	}

	mask := fh.AllFields[regName][fieldName]
	shift := ffs(mask)
	newValue := (val & ^mask) | ((uint32(fieldValue) << shift) & mask)
	fh.Registers[regName] = newValue
	return newValue
}

// PrettyFormat returns a string description of a register.
func (fh *FieldHelper) PrettyFormat(regName string, regValue uint32) string {
	regFields, ok := fh.AllFields[regName]
	if !ok {
		return fmt.Sprintf("%s: %08x", regName, regValue)
	}

	// Sort fields by mask
	type maskField struct {
		mask uint32
		name string
	}
	fields := make([]maskField, 0, len(regFields))
	for name, mask := range regFields {
		fields = append(fields, maskField{mask, name})
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].mask < fields[j].mask
	})

	var parts []string
	for _, f := range fields {
		v := fh.GetField(f.name, &regValue, regName)
		var sval string
		if formatter, ok := fh.FieldFormatters[f.name]; ok {
			sval = formatter(v)
		} else {
			sval = fmt.Sprintf("%d", v)
		}
		if sval != "" && sval != "0" {
			parts = append(parts, fmt.Sprintf("%s=%s", f.name, sval))
		}
	}

	return fmt.Sprintf("%-11s %08x %s", regName+":", regValue, strings.Join(parts, " "))
}

// GetRegFields returns all fields in a register.
func (fh *FieldHelper) GetRegFields(regName string, regValue uint32) map[string]int32 {
	result := make(map[string]int32)
	regFields, ok := fh.AllFields[regName]
	if !ok {
		return result
	}

	for fieldName := range regFields {
		result[fieldName] = fh.GetField(fieldName, &regValue, regName)
	}
	return result
}
