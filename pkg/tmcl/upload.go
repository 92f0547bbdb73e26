// Microstep table upload
//
// Copyright (C) 2026  TMC Tools Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package tmcl

import (
	"fmt"

	"tmc-tools/pkg/errors"
	"tmc-tools/pkg/microsteps"
)

// UploadTable writes all table registers to the module: MSLUT0..7 first,
// then MSLUTSEL and MSLUTSTART. The bank selects the motion controller
// on multi-driver boards.
func (i *Interface) UploadTable(bank byte, table *microsteps.Table) error {
	for _, reg := range table.Registers() {
		i.logger.Info("writing %s = 0x%08x", reg.Name, reg.Value)
		if err := i.WriteRegister(bank, reg.Address, reg.Value); err != nil {
			if te, ok := err.(*errors.ToolError); ok {
				te.SetRegister(reg.Name)
			}
			return err
		}
	}
	return nil
}

// VerifyTable reads the table registers back and compares them against
// the encoded values. The table registers are write-only on the driver
// itself; verification relies on the module shadowing them, which
// evaluation firmware and the simulator do.
func (i *Interface) VerifyTable(bank byte, table *microsteps.Table) error {
	for _, reg := range table.Registers() {
		got, err := i.ReadRegister(bank, reg.Address)
		if err != nil {
			if te, ok := err.(*errors.ToolError); ok {
				te.SetRegister(reg.Name)
			}
			return err
		}
		if got != reg.Value {
			return errors.DeviceError("verify",
				fmt.Sprintf("register %s reads 0x%08x, wrote 0x%08x", reg.Name, got, reg.Value)).
				SetRegister(reg.Name)
		}
	}
	return nil
}
