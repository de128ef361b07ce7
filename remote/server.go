// Package remote connects the framed serial link to the generator: Server
// runs on the device inside the control loop, Client drives it from a host.
package remote

import (
	"errors"

	"sqwave/core"
	"sqwave/protocol"
)

var errBadArgument = errors.New("bad argument")

// Handler executes one request with its decoded arguments
type Handler func(args []uint32) error

// Server dispatches requests to a Controller and answers every request with
// a status reply. It is driven from the control loop and is not safe for
// concurrent use.
type Server struct {
	ctrl      *core.Controller
	battery   func() int
	transport *protocol.Transport
	output    *protocol.ScratchOutput
	handlers  map[protocol.CommandID]Handler
	args      [2]uint32

	// Handled counts executed requests
	Handled uint32
}

// NewServer creates a server for ctrl. battery reports the current battery
// level and may be nil.
func NewServer(ctrl *core.Controller, battery func() int) *Server {
	s := &Server{
		ctrl:     ctrl,
		battery:  battery,
		output:   protocol.NewScratchOutput(),
		handlers: make(map[protocol.CommandID]Handler),
	}
	s.transport = protocol.NewTransport(s.output, s.handleFrame)
	s.registerDefaults()
	return s
}

// Register installs or replaces the handler for id
func (s *Server) Register(id protocol.CommandID, h Handler) {
	s.handlers[id] = h
}

func (s *Server) registerDefaults() {
	gen := s.ctrl.Generator()

	s.Register(protocol.CmdStatus, func([]uint32) error {
		return nil
	})
	s.Register(protocol.CmdIncrease, func([]uint32) error {
		s.ctrl.IncreaseFrequency(s.ctrl.Settings().Increment)
		return nil
	})
	s.Register(protocol.CmdDecrease, func([]uint32) error {
		s.ctrl.DecreaseFrequency(s.ctrl.Settings().Increment)
		return nil
	})
	s.Register(protocol.CmdSelectIncrement, func(args []uint32) error {
		return s.ctrl.SelectIncrement(core.FrequencyIncrement(args[0]))
	})
	s.Register(protocol.CmdStepDuty, func([]uint32) error {
		s.ctrl.StepDuty()
		return nil
	})
	s.Register(protocol.CmdSetDuty, func(args []uint32) error {
		if args[0] > 100 {
			return errBadArgument
		}
		s.ctrl.SetDuty(int(args[0]))
		return nil
	})
	s.Register(protocol.CmdStart, func([]uint32) error {
		// Pending changes go out before the chain is armed
		if _, err := s.ctrl.Poll(); err != nil {
			return err
		}
		return gen.Start()
	})
	s.Register(protocol.CmdStop, func([]uint32) error {
		return gen.Stop()
	})
}

// Receive processes buffered input; replies accumulate in Output
func (s *Server) Receive(input protocol.InputBuffer) {
	s.transport.Receive(input)
}

// Output returns the reply bytes waiting to be sent
func (s *Server) Output() []byte {
	return s.output.Result()
}

// ResetOutput discards sent reply bytes
func (s *Server) ResetOutput() {
	s.output.Reset()
}

// Transport exposes the link state for diagnostics
func (s *Server) Transport() *protocol.Transport {
	return s.transport
}

func (s *Server) handleFrame(payload []byte) error {
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return s.reply(protocol.ResultBadArgument)
	}
	cmd := protocol.CommandID(id)

	h, ok := s.handlers[cmd]
	if !ok {
		core.RecordEvent(core.EvtRemote, id, uint32(protocol.ResultUnknownCommand))
		return s.reply(protocol.ResultUnknownCommand)
	}

	args := s.args[:cmd.ArgCount()]
	for i := range args {
		if args[i], err = protocol.DecodeVLQUint(&payload); err != nil {
			return s.reply(protocol.ResultBadArgument)
		}
	}

	err = h(args)
	if err == nil {
		_, err = s.ctrl.Poll()
	}
	code := resultCode(err)
	s.Handled++
	core.RecordEvent(core.EvtRemote, id, uint32(code))
	return s.reply(code)
}

func (s *Server) reply(code uint8) error {
	level := -1
	if s.battery != nil {
		level = s.battery()
	}
	st := s.ctrl.Status(level)
	r := protocol.StatusReply{
		FrequencyHz: st.FrequencyHz,
		ActualHz:    st.ActualHz,
		Duty:        uint32(st.Duty),
		Increment:   uint32(st.Increment),
		Running:     st.Running,
		Battery:     int32(st.Battery),
		Result:      code,
	}
	return s.transport.SendFrame(r.Encode)
}

func resultCode(err error) uint8 {
	switch err {
	case nil:
		return protocol.ResultOK
	case core.ErrRunning:
		return protocol.ResultRunning
	case core.ErrNotRunning:
		return protocol.ResultNotRunning
	case errBadArgument, core.ErrInvalidIncrement, core.ErrInvalidDuty, core.ErrInvalidFrequency:
		return protocol.ResultBadArgument
	default:
		return protocol.ResultFailed
	}
}
