package midi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jsphweid/chordgen/logger"
	gomidi "gitlab.com/gomidi/midi/v2"
)

var (
	ErrNoDevice = errors.New("no MIDI output device available")
	ErrClosed   = errors.New("MIDI output closed")
)

type Device struct {
	ID       int
	Name     string
	IsOutput bool
}

// Port is the part of a gomidi drivers.Out we rely on.
type Port interface {
	Open() error
	Close() error
	IsOpen() bool
	Number() int
	String() string
	Send(data []byte) error
}

// NamedPort is the part of a gomidi drivers.In we rely on.
type NamedPort interface {
	Number() int
	String() string
}

// PortSource enumerates the ports of the registered driver.
type PortSource interface {
	Outs() []Port
	Ins() []NamedPort
}

type systemPorts struct{}

func (systemPorts) Outs() []Port {
	outs := gomidi.GetOutPorts()
	res := make([]Port, 0, len(outs))
	for _, out := range outs {
		res = append(res, out)
	}
	return res
}

func (systemPorts) Ins() []NamedPort {
	ins := gomidi.GetInPorts()
	res := make([]NamedPort, 0, len(ins))
	for _, in := range ins {
		res = append(res, in)
	}
	return res
}

// SystemPorts lists whatever the registered gomidi driver exposes. With no
// driver registered it lists nothing.
func SystemPorts() PortSource { return systemPorts{} }

// ListDevices returns every output port followed by every input port.
func ListDevices(src PortSource) []Device {
	var res []Device
	for _, out := range src.Outs() {
		res = append(res, Device{ID: out.Number(), Name: out.String(), IsOutput: true})
	}
	for _, in := range src.Ins() {
		res = append(res, Device{ID: in.Number(), Name: in.String(), IsOutput: false})
	}
	return res
}

func CloseDriver() {
	gomidi.CloseDriver()
}

// Output is a MIDI sink on a single channel. The port is opened lazily on the
// first note, and every call is serialized on one lock so scheduled playback
// and previews can share it.
type Output struct {
	mu       sync.Mutex
	ports    PortSource
	selector string
	channel  uint8
	current  Port
	closed   bool
}

// NewOutput creates an unopened output. selector is a port number, a port
// name prefix, or "" for the first output found.
func NewOutput(ports PortSource, selector string, channel uint8) *Output {
	return &Output{
		ports:    ports,
		selector: strings.TrimSpace(selector),
		channel:  channel & 0x0f,
	}
}

func (o *Output) Devices() []Device {
	return ListDevices(o.ports)
}

// Open switches to the output port numbered id, closing the current one.
func (o *Output) Open(id int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.ports.Outs() {
		if p.Number() == id {
			return o.switchToLocked(p)
		}
	}
	return fmt.Errorf("%w: no output numbered %d", ErrNoDevice, id)
}

func (o *Output) switchToLocked(p Port) error {
	if o.current != nil && o.current.IsOpen() {
		o.current.Close()
	}
	o.current = nil
	if !p.IsOpen() {
		if err := p.Open(); err != nil {
			return fmt.Errorf("opening MIDI output %v failed: %w", p.String(), err)
		}
	}
	o.current = p
	o.closed = false
	logger.Debug("Opened MIDI output", logger.Fields{"id": p.Number(), "name": p.String(), "channel": o.channel})
	return nil
}

func (o *Output) selectLocked() Port {
	outs := o.ports.Outs()
	if len(outs) == 0 {
		return nil
	}
	if o.selector == "" {
		return outs[0]
	}
	if n, err := strconv.Atoi(o.selector); err == nil {
		for _, p := range outs {
			if p.Number() == n {
				return p
			}
		}
	}
	for _, p := range outs {
		if strings.HasPrefix(p.String(), o.selector) {
			return p
		}
	}
	// selected device is gone, take the first one
	return outs[0]
}

func (o *Output) ensureLocked() error {
	if o.closed {
		return ErrClosed
	}
	if o.current != nil && o.current.IsOpen() {
		return nil
	}
	p := o.selectLocked()
	if p == nil {
		return ErrNoDevice
	}
	return o.switchToLocked(p)
}

// Ensure opens the configured output if it is not open yet.
func (o *Output) Ensure() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ensureLocked()
}

// Current returns the name of the open port, or "".
func (o *Output) Current() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return ""
	}
	return o.current.String()
}

func (o *Output) send(msg gomidi.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.ensureLocked(); err != nil {
		return err
	}
	return o.current.Send(msg)
}

func (o *Output) NoteOn(note uint8, velocity uint8) error {
	return o.send(gomidi.NoteOn(o.channel, note&0x7f, velocity&0x7f))
}

func (o *Output) NoteOff(note uint8, velocity uint8) error {
	return o.send(gomidi.NoteOffVelocity(o.channel, note&0x7f, velocity&0x7f))
}

// Close releases the port. Later note calls fail with ErrClosed until Open is
// called again. Closing twice is fine.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	if o.current == nil {
		return nil
	}
	var err error
	if o.current.IsOpen() {
		err = o.current.Close()
	}
	o.current = nil
	return err
}
