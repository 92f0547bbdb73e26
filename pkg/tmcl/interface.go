// TMCL host interface
//
// Copyright (C) 2026  TMC Tools Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package tmcl

import (
	"fmt"
	"io"
	"sync"

	"tmc-tools/pkg/errors"
	"tmc-tools/pkg/log"
)

// Interface executes TMCL commands over a byte stream, usually a serial
// port or a simulator socket. Requests are serialized; one request is
// always answered by one reply.
type Interface struct {
	mu            sync.Mutex
	rw            io.ReadWriteCloser
	moduleAddress byte
	logger        *log.Logger
}

// NewInterface wraps a byte stream for the module at the given address.
func NewInterface(rw io.ReadWriteCloser, moduleAddress byte) *Interface {
	if moduleAddress == 0 {
		moduleAddress = DEFAULT_MODULE_ADDRESS
	}
	return &Interface{
		rw:            rw,
		moduleAddress: moduleAddress,
		logger:        log.GetLogger("tmcl"),
	}
}

// ModuleAddress returns the configured module address.
func (i *Interface) ModuleAddress() byte {
	return i.moduleAddress
}

// Exec sends a request and waits for its reply. The module address is
// filled in when the request leaves it zero. A reply with a non-success
// status is returned as an error.
func (i *Interface) Exec(req *Request) (*Reply, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if req.ModuleAddress == 0 {
		req.ModuleAddress = i.moduleAddress
	}

	i.logger.Debug("-> %s", req)
	if err := writeFull(i.rw, req.Serialize()); err != nil {
		return nil, errors.Wrap(err, errors.ErrDevice, "datagram write failed").SetOp("write")
	}

	buf := make([]byte, TMCL_DATAGRAM_LENGTH)
	if _, err := io.ReadFull(i.rw, buf); err != nil {
		return nil, errors.Wrap(err, errors.ErrDevice, "reply read failed").SetOp("read")
	}

	reply, err := ParseReply(buf)
	if err != nil {
		return nil, err
	}
	i.logger.Debug("<- %s", reply)

	if reply.Command != req.Command {
		return nil, errors.TMCLFrameError(fmt.Sprintf("reply echoes command %d, sent %d", reply.Command, req.Command))
	}
	if err := reply.StatusError(); err != nil {
		return nil, err
	}
	return reply, nil
}

// WriteRegister writes a motion controller register.
func (i *Interface) WriteRegister(bank, register byte, value uint32) error {
	_, err := i.Exec(&Request{
		Command: CMD_WRITE_MC,
		Type:    register,
		Motor:   bank,
		Value:   value,
	})
	return err
}

// ReadRegister reads a motion controller register.
func (i *Interface) ReadRegister(bank, register byte) (uint32, error) {
	reply, err := i.Exec(&Request{
		Command: CMD_READ_MC,
		Type:    register,
		Motor:   bank,
	})
	if err != nil {
		return 0, err
	}
	return reply.Value, nil
}

// GetFirmwareVersion reads the firmware version in binary form: module
// number in the upper 16 bits, version in the lower 16.
func (i *Interface) GetFirmwareVersion() (uint32, error) {
	reply, err := i.Exec(&Request{
		Command: CMD_GET_FIRMWARE_VERSION,
		Type:    1, // binary format
	})
	if err != nil {
		return 0, err
	}
	return reply.Value, nil
}

// Close closes the underlying stream.
func (i *Interface) Close() error {
	return i.rw.Close()
}

func writeFull(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
