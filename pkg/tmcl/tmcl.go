// TMCL datagram codec
//
// TMCL modules speak fixed 9 byte datagrams. A request carries the module
// address, a command, a type field (the register address for register
// access commands), a motor/bank selector and a 32 bit big endian value.
// The last byte is a checksum: the low byte of the sum of the first
// eight. Replies mirror the layout with a status byte in place of the
// type field.
//
// Copyright (C) 2026  TMC Tools Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package tmcl

import (
	"fmt"

	"tmc-tools/pkg/errors"
)

const (
	TMCL_DATAGRAM_LENGTH = 9

	// Default bus addresses
	DEFAULT_MODULE_ADDRESS = 1
	DEFAULT_HOST_ADDRESS   = 2
)

// Commands used for direct register access on evaluation boards.
const (
	CMD_GET_FIRMWARE_VERSION = 136
	CMD_WRITE_MC             = 146
	CMD_WRITE_DRV            = 147
	CMD_READ_MC              = 148
	CMD_READ_DRV             = 149
)

// Reply status codes
const (
	STATUS_OK              = 100
	STATUS_LOADED          = 101
	STATUS_WRONG_CHECKSUM  = 1
	STATUS_INVALID_COMMAND = 2
	STATUS_WRONG_TYPE      = 3
	STATUS_INVALID_VALUE   = 4
	STATUS_EEPROM_LOCKED   = 5
	STATUS_NOT_AVAILABLE   = 6
)

// Request is one host-to-module datagram.
type Request struct {
	ModuleAddress byte
	Command       byte
	Type          byte
	Motor         byte
	Value         uint32
}

// Reply is one module-to-host datagram.
type Reply struct {
	ReplyAddress  byte
	ModuleAddress byte
	Status        byte
	Command       byte
	Value         uint32
}

// Checksum returns the low byte of the byte sum.
func Checksum(data []byte) byte {
	sum := 0
	for _, b := range data {
		sum += int(b)
	}
	return byte(sum)
}

// Serialize returns the 9 byte wire form with the checksum appended.
func (r *Request) Serialize() []byte {
	buf := make([]byte, TMCL_DATAGRAM_LENGTH)
	buf[0] = r.ModuleAddress
	buf[1] = r.Command
	buf[2] = r.Type
	buf[3] = r.Motor
	buf[4] = byte(r.Value >> 24)
	buf[5] = byte(r.Value >> 16)
	buf[6] = byte(r.Value >> 8)
	buf[7] = byte(r.Value)
	buf[8] = Checksum(buf[:8])
	return buf
}

// ParseRequest decodes and checksum-verifies a request datagram.
func ParseRequest(data []byte) (*Request, error) {
	if len(data) != TMCL_DATAGRAM_LENGTH {
		return nil, errors.TMCLFrameError(fmt.Sprintf("request length %d, need %d", len(data), TMCL_DATAGRAM_LENGTH))
	}
	if want := Checksum(data[:8]); want != data[8] {
		return nil, errors.TMCLChecksumError(want, data[8])
	}
	return &Request{
		ModuleAddress: data[0],
		Command:       data[1],
		Type:          data[2],
		Motor:         data[3],
		Value:         uint32(data[4])<<24 | uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7]),
	}, nil
}

// Serialize returns the 9 byte wire form with the checksum appended.
func (r *Reply) Serialize() []byte {
	buf := make([]byte, TMCL_DATAGRAM_LENGTH)
	buf[0] = r.ReplyAddress
	buf[1] = r.ModuleAddress
	buf[2] = r.Status
	buf[3] = r.Command
	buf[4] = byte(r.Value >> 24)
	buf[5] = byte(r.Value >> 16)
	buf[6] = byte(r.Value >> 8)
	buf[7] = byte(r.Value)
	buf[8] = Checksum(buf[:8])
	return buf
}

// ParseReply decodes and checksum-verifies a reply datagram.
func ParseReply(data []byte) (*Reply, error) {
	if len(data) != TMCL_DATAGRAM_LENGTH {
		return nil, errors.TMCLFrameError(fmt.Sprintf("reply length %d, need %d", len(data), TMCL_DATAGRAM_LENGTH))
	}
	if want := Checksum(data[:8]); want != data[8] {
		return nil, errors.TMCLChecksumError(want, data[8])
	}
	return &Reply{
		ReplyAddress:  data[0],
		ModuleAddress: data[1],
		Status:        data[2],
		Command:       data[3],
		Value:         uint32(data[4])<<24 | uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7]),
	}, nil
}

// StatusError returns nil for a success status, otherwise a status error.
func (r *Reply) StatusError() error {
	if r.Status == STATUS_OK || r.Status == STATUS_LOADED {
		return nil
	}
	return errors.TMCLStatusError(r.Command, r.Status, StatusDescription(r.Status))
}

// StatusDescription returns the datasheet name of a reply status.
func StatusDescription(status byte) string {
	switch status {
	case STATUS_OK:
		return "OK"
	case STATUS_LOADED:
		return "command loaded"
	case STATUS_WRONG_CHECKSUM:
		return "incorrect checksum"
	case STATUS_INVALID_COMMAND:
		return "invalid command"
	case STATUS_WRONG_TYPE:
		return "wrong type"
	case STATUS_INVALID_VALUE:
		return "invalid value"
	case STATUS_EEPROM_LOCKED:
		return "EEPROM locked"
	case STATUS_NOT_AVAILABLE:
		return "command not available"
	}
	return "unknown status"
}

// CommandName returns the mnemonic of a command byte.
func CommandName(cmd byte) string {
	switch cmd {
	case CMD_GET_FIRMWARE_VERSION:
		return "GET_FIRMWARE_VERSION"
	case CMD_WRITE_MC:
		return "WRITE_MC"
	case CMD_WRITE_DRV:
		return "WRITE_DRV"
	case CMD_READ_MC:
		return "READ_MC"
	case CMD_READ_DRV:
		return "READ_DRV"
	}
	return fmt.Sprintf("CMD_%d", cmd)
}

func (r *Request) String() string {
	return fmt.Sprintf("%s type=%d motor=%d value=0x%08x", CommandName(r.Command), r.Type, r.Motor, r.Value)
}

func (r *Reply) String() string {
	return fmt.Sprintf("%s status=%d (%s) value=0x%08x", CommandName(r.Command), r.Status, StatusDescription(r.Status), r.Value)
}
