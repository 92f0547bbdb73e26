// In-memory TMCL module simulator
//
// Copyright (C) 2026  TMC Tools Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package tmcl

import (
	"io"
	"sync"

	"tmc-tools/pkg/errors"
)

// Simulator answers the register access subset of TMCL in memory. It
// backs the mock module command and the transport tests; registers are
// plain storage, no driver behavior is modeled.
type Simulator struct {
	mu              sync.Mutex
	moduleAddress   byte
	hostAddress     byte
	firmwareVersion uint32
	mc              map[byte]map[byte]uint32
	drv             map[byte]map[byte]uint32

	// OnWrite, when set, runs after every accepted motion controller
	// register write.
	OnWrite func(bank, register byte, value uint32)
}

// NewSimulator creates a simulator answering on the given address.
func NewSimulator(moduleAddress byte) *Simulator {
	if moduleAddress == 0 {
		moduleAddress = DEFAULT_MODULE_ADDRESS
	}
	return &Simulator{
		moduleAddress: moduleAddress,
		hostAddress:   DEFAULT_HOST_ADDRESS,
		// Module number in the upper half, firmware 1.0 below
		firmwareVersion: 5041<<16 | 0x0100,
		mc:              make(map[byte]map[byte]uint32),
		drv:             make(map[byte]map[byte]uint32),
	}
}

// ModuleAddress returns the address the simulator answers on.
func (s *Simulator) ModuleAddress() byte {
	return s.moduleAddress
}

// HandleRequest executes one request. Requests addressed to another
// module return nil and must not be answered.
func (s *Simulator) HandleRequest(req *Request) *Reply {
	if req.ModuleAddress != s.moduleAddress {
		return nil
	}

	reply := &Reply{
		ReplyAddress:  s.hostAddress,
		ModuleAddress: s.moduleAddress,
		Status:        STATUS_OK,
		Command:       req.Command,
	}

	var onWrite func(bank, register byte, value uint32)

	s.mu.Lock()
	switch req.Command {
	case CMD_WRITE_MC:
		setBankRegister(s.mc, req.Motor, req.Type, req.Value)
		reply.Value = req.Value
		onWrite = s.OnWrite
	case CMD_WRITE_DRV:
		setBankRegister(s.drv, req.Motor, req.Type, req.Value)
		reply.Value = req.Value
	case CMD_READ_MC:
		reply.Value = s.mc[req.Motor][req.Type]
	case CMD_READ_DRV:
		reply.Value = s.drv[req.Motor][req.Type]
	case CMD_GET_FIRMWARE_VERSION:
		if req.Type != 1 {
			reply.Status = STATUS_WRONG_TYPE
		} else {
			reply.Value = s.firmwareVersion
		}
	default:
		reply.Status = STATUS_INVALID_COMMAND
	}
	s.mu.Unlock()

	if onWrite != nil {
		onWrite(req.Motor, req.Type, req.Value)
	}
	return reply
}

// ServeConn answers datagrams from the stream until it closes.
func (s *Simulator) ServeConn(rw io.ReadWriter) error {
	buf := make([]byte, TMCL_DATAGRAM_LENGTH)
	for {
		if _, err := io.ReadFull(rw, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}

		req, err := ParseRequest(buf)
		if err != nil {
			if errors.Is(err, errors.ErrTMCLChecksum) {
				nak := &Reply{
					ReplyAddress:  s.hostAddress,
					ModuleAddress: s.moduleAddress,
					Status:        STATUS_WRONG_CHECKSUM,
					Command:       buf[1],
				}
				if werr := writeFull(rw, nak.Serialize()); werr != nil {
					return werr
				}
				continue
			}
			return err
		}

		reply := s.HandleRequest(req)
		if reply == nil {
			continue
		}
		if err := writeFull(rw, reply.Serialize()); err != nil {
			return err
		}
	}
}

// Register returns a motion controller register and whether it has been
// written.
func (s *Simulator) Register(bank, register byte) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.mc[bank][register]
	return value, ok
}

// SetRegister presets a motion controller register.
func (s *Simulator) SetRegister(bank, register byte, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setBankRegister(s.mc, bank, register, value)
}

// Snapshot copies all written motion controller registers of a bank.
func (s *Simulator) Snapshot(bank byte) map[byte]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[byte]uint32, len(s.mc[bank]))
	for register, value := range s.mc[bank] {
		snap[register] = value
	}
	return snap
}

func setBankRegister(banks map[byte]map[byte]uint32, bank, register byte, value uint32) {
	regs, ok := banks[bank]
	if !ok {
		regs = make(map[byte]uint32)
		banks[bank] = regs
	}
	regs[register] = value
}
