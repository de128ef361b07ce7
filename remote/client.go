package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"sqwave/protocol"
)

var ErrTimeout = errors.New("remote: no reply from device")

// Client sends requests over a serial link and waits for status replies.
// The first request opens a session with an empty frame. A request whose
// reply is lost is resent with the same sequence; the device answers the
// resend from its reply cache and does not execute it twice.
type Client struct {
	rw     io.ReadWriter
	seq    uint8
	joined bool

	in  *protocol.FifoBuffer
	out *protocol.ScratchOutput
	buf [64]byte

	// Timeout bounds the wait for each reply
	Timeout time.Duration
	// Retries is the number of resends after the first attempt
	Retries int
	Logger  *slog.Logger
}

// NewClient creates a client on rw, typically a serial port
func NewClient(rw io.ReadWriter) *Client {
	return &Client{
		rw:      rw,
		seq:     protocol.MessageDest,
		in:      protocol.NewFifoBuffer(4 * protocol.MessageMax),
		out:     protocol.NewScratchOutput(),
		Timeout: 500 * time.Millisecond,
		Retries: 3,
	}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Do sends one request and returns the device status that answers it.
// A reply carrying a failure result is returned together with the matching
// error from protocol.ResultError.
func (c *Client) Do(ctx context.Context, id protocol.CommandID, args ...uint32) (protocol.StatusReply, error) {
	if len(args) != id.ArgCount() {
		return protocol.StatusReply{}, fmt.Errorf("%s takes %d arguments, got %d", id, id.ArgCount(), len(args))
	}

	if !c.joined {
		if err := c.openSession(ctx); err != nil {
			return protocol.StatusReply{}, err
		}
	}

	req, reqArgs := id, args
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if err := c.send(req, reqArgs); err != nil {
			return protocol.StatusReply{}, fmt.Errorf("send %s: %w", req, err)
		}

		frame, err := c.await(ctx)
		if errors.Is(err, ErrTimeout) {
			c.logger().Debug("resending", "cmd", req.String(), "seq", c.seq, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return protocol.StatusReply{}, err
		}

		if len(frame.Payload) == 0 {
			// Out of sequence. If the device already moved past our frame,
			// the request ran and only its reply was lost.
			executed := frame.Seq == protocol.NextSequence(c.seq)
			c.logger().Debug("device expects another sequence", "have", c.seq, "want", frame.Seq, "executed", executed)
			c.seq = frame.Seq
			if executed {
				req, reqArgs = protocol.CmdStatus, nil
			}
			continue
		}

		c.seq = frame.Seq
		reply, err := protocol.DecodeStatusReply(frame.Payload)
		if err != nil {
			return protocol.StatusReply{}, fmt.Errorf("decode reply to %s: %w", id, err)
		}
		return reply, protocol.ResultError(reply.Result)
	}
	return protocol.StatusReply{}, ErrTimeout
}

// openSession restarts the device sequence after our own. Resending the
// empty frame is harmless, so lost acks are simply retried.
func (c *Client) openSession(ctx context.Context) error {
	c.seq = protocol.MessageDest
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if err := c.write(nil); err != nil {
			return fmt.Errorf("open session: %w", err)
		}
		frame, err := c.await(ctx)
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if err != nil {
			return err
		}
		if len(frame.Payload) == 0 && frame.Seq == protocol.NextSequence(c.seq) {
			c.seq = frame.Seq
			c.joined = true
			return nil
		}
	}
	return ErrTimeout
}

func (c *Client) send(id protocol.CommandID, args []uint32) error {
	return c.write(func(output protocol.OutputBuffer) {
		protocol.EncodeCommand(output, id, args...)
	})
}

func (c *Client) write(payload func(protocol.OutputBuffer)) error {
	c.out.Reset()
	err := protocol.EncodeFrame(c.out, c.seq, payload)
	if err != nil {
		return err
	}
	_, err = c.rw.Write(c.out.Result())
	return err
}

// await reads until a frame answering the current sequence arrives. Replies
// to earlier requests are skipped.
func (c *Client) await(ctx context.Context) (protocol.Frame, error) {
	deadline := time.Now().Add(c.Timeout)
	want := protocol.NextSequence(c.seq)

	for {
		for data := c.in.Data(); len(data) > 0; data = c.in.Data() {
			frame, n, err := protocol.ParseFrame(data)
			if errors.Is(err, protocol.ErrIncomplete) {
				break
			}
			if err != nil {
				skip, _ := protocol.SkipToSync(data)
				c.in.Pop(skip)
				continue
			}

			f := protocol.Frame{Seq: frame.Seq, Payload: append([]byte(nil), frame.Payload...)}
			c.in.Pop(n)
			if len(f.Payload) == 0 || f.Seq == want {
				return f, nil
			}
		}

		if err := ctx.Err(); err != nil {
			return protocol.Frame{}, err
		}
		if time.Now().After(deadline) {
			return protocol.Frame{}, ErrTimeout
		}

		n, err := c.rw.Read(c.buf[:])
		if n > 0 {
			c.in.Write(c.buf[:n])
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return protocol.Frame{}, fmt.Errorf("read: %w", err)
		}
	}
}

// Status fetches the device status
func (c *Client) Status(ctx context.Context) (protocol.StatusReply, error) {
	return c.Do(ctx, protocol.CmdStatus)
}

// Increase raises the frequency by the selected increment
func (c *Client) Increase(ctx context.Context) (protocol.StatusReply, error) {
	return c.Do(ctx, protocol.CmdIncrease)
}

// Decrease lowers the frequency by the selected increment
func (c *Client) Decrease(ctx context.Context) (protocol.StatusReply, error) {
	return c.Do(ctx, protocol.CmdDecrease)
}

// SelectIncrement selects the 1000 or 10000 Hz step
func (c *Client) SelectIncrement(ctx context.Context, hz uint32) (protocol.StatusReply, error) {
	return c.Do(ctx, protocol.CmdSelectIncrement, hz)
}

// StepDuty advances the duty cycle by one step
func (c *Client) StepDuty(ctx context.Context) (protocol.StatusReply, error) {
	return c.Do(ctx, protocol.CmdStepDuty)
}

// SetDuty sets the duty cycle; the device rounds to the nearest valid step
func (c *Client) SetDuty(ctx context.Context, percent uint32) (protocol.StatusReply, error) {
	return c.Do(ctx, protocol.CmdSetDuty, percent)
}

// Start enables the output
func (c *Client) Start(ctx context.Context) (protocol.StatusReply, error) {
	return c.Do(ctx, protocol.CmdStart)
}

// Stop disables the output
func (c *Client) Stop(ctx context.Context) (protocol.StatusReply, error) {
	return c.Do(ctx, protocol.CmdStop)
}
