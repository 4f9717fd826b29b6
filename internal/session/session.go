package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/procmix/tanksim/internal/control"
	"github.com/procmix/tanksim/internal/dynamo"
	"github.com/procmix/tanksim/internal/integrators"
	"github.com/procmix/tanksim/internal/noise"
	"github.com/procmix/tanksim/internal/plant"
)

// Options configures one session.
type Options struct {
	// SamplingInterval is the wall-clock period between snapshots. Each
	// tick also advances simulated time by this many seconds.
	SamplingInterval time.Duration

	// SubStep is the integrator increment in simulated seconds.
	SubStep float64

	// Integrator selects the scheme: "rk4" (default) or "euler".
	Integrator string

	Gains control.Gains

	NoiseEnabled bool
	NoiseLevel   float64

	// Seed drives the noise source; equal seeds give identical reported
	// sequences.
	Seed int64

	// QueueSize bounds the command queue; StreamBuffer each subscriber
	// channel.
	QueueSize    int
	StreamBuffer int
}

// DefaultOptions returns the nominal loop configuration: 500 ms sampling
// with 0.5 s integration sub-steps.
func DefaultOptions() Options {
	return Options{
		SamplingInterval: 500 * time.Millisecond,
		SubStep:          0.5,
		Integrator:       "rk4",
		Gains:            control.DefaultGains(),
		Seed:             time.Now().UnixNano(),
		QueueSize:        32,
		StreamBuffer:     8,
	}
}

func (o Options) validate() error {
	if o.SamplingInterval <= 0 {
		return fmt.Errorf("%w: sampling interval must be positive", dynamo.ErrValidation)
	}
	if o.SubStep <= 0 {
		return fmt.Errorf("%w: integration sub-step must be positive", dynamo.ErrValidation)
	}
	if o.NoiseLevel < 0 {
		return fmt.Errorf("%w: noise level must not be negative", dynamo.ErrValidation)
	}
	return nil
}

// Session is one real-time simulation run. A single goroutine owns all
// mutable state; external producers reach it only through the command
// queue and the subscriber channels.
type Session struct {
	ID string

	params plant.Params
	eq     plant.Equilibrium
	model  *plant.Model
	integ  dynamo.Integrator
	ctrl   dynamo.Controller
	noise  *noise.Injector
	opts   Options
	log    *logrus.Entry

	commands  chan Command
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	status    Status
	state     dynamo.State
	controls  dynamo.Control
	setpoints map[setpointKey]Setpoint
	simTime   float64
	tick      uint64
	clamps    int64
	subs      map[int]chan Event
	nextSub   int
}

// New validates the operating point and options and builds a session in
// the Initialized state. Start launches the loop.
func New(params plant.Params, eq plant.Equilibrium, opts Options, log *logrus.Logger) (*Session, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := eq.Validate(params); err != nil {
		return nil, err
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}
	if opts.StreamBuffer <= 0 {
		opts.StreamBuffer = 8
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	integ, err := integrators.New(opts.Integrator, integrators.Bounds{Params: params})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrValidation, err)
	}

	id := uuid.NewString()
	s := &Session{
		ID:        id,
		params:    params,
		eq:        eq,
		model:     plant.NewModel(params),
		integ:     integ,
		ctrl:      control.NewProportional(eq.Control, opts.Gains),
		noise:     noise.New(opts.NoiseEnabled, opts.NoiseLevel, opts.Seed),
		opts:      opts,
		log:       log.WithField("session", id),
		commands:  make(chan Command, opts.QueueSize),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
		status:    StatusInitialized,
		state:     eq.State(),
		controls:  eq.Control,
		setpoints: make(map[setpointKey]Setpoint),
		subs:      make(map[int]chan Event),
	}
	return s, nil
}

// Start transitions Initialized -> Running and launches the loop
// goroutine. Calling it twice is an error.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.status != StatusInitialized {
		s.mu.Unlock()
		return fmt.Errorf("%w: session already started", dynamo.ErrValidation)
	}
	s.status = StatusRunning
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"interval": s.opts.SamplingInterval,
		"substep":  s.opts.SubStep,
		"scheme":   s.opts.Integrator,
		"noise":    s.opts.NoiseEnabled,
	}).Info("session started")

	go s.run()
	return nil
}

// Submit queues one operator command. Validation failures are returned
// synchronously and leave the session untouched; ErrClosed after Close.
func (s *Session) Submit(cmd Command) error {
	if err := cmd.validate(s); err != nil {
		return err
	}
	select {
	case <-s.closing:
		return dynamo.ErrClosed
	default:
	}
	select {
	case s.commands <- cmd:
		return nil
	case <-s.closing:
		return dynamo.ErrClosed
	}
}

// Subscribe attaches a snapshot stream. The cancel function detaches it;
// the channel closes on cancel and on session close. A subscriber that
// cannot keep up misses snapshots rather than stalling the loop.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, s.opts.StreamBuffer)
	if s.status == StatusClosed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close tears the session down. Idempotent; the loop finishes its
// current tick before exiting.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.closing) })

	s.mu.Lock()
	started := s.status != StatusInitialized
	if !started {
		// Loop never ran; tear down inline.
		s.teardown(nil)
	}
	s.mu.Unlock()

	if started {
		<-s.done
	} else {
		close(s.done)
	}
}

// Info returns the externally visible summary.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:        s.ID,
		Status:    s.status,
		SimTime:   s.simTime,
		Tick:      s.tick,
		Setpoints: len(s.setpoints),
		Clamps:    s.clamps,
	}
}

func (s *Session) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.opts.SamplingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closing:
			s.mu.Lock()
			s.teardown(nil)
			s.mu.Unlock()
			return
		case <-ticker.C:
			if err := s.step(); err != nil {
				s.closeOnce.Do(func() { close(s.closing) })
				return
			}
		}
	}
}

// step runs one tick: drain commands, advance if running, emit. A
// returned error is a divergence; it has already been surfaced and the
// session is closed.
func (s *Session) step() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return nil
	}

	s.drainCommands()

	if s.status != StatusRunning {
		// Paused: wall-clock ticks pass, simulated time stands still and
		// snapshots are suppressed.
		s.tick++
		return nil
	}

	if err := s.advance(); err != nil {
		div := &dynamo.DivergenceError{SimTime: s.simTime, Step: int(s.tick), State: s.state}
		s.log.WithFields(logrus.Fields{"tick": s.tick, "simTime": s.simTime}).
			WithError(div).Error("integration diverged, closing session")
		s.teardown(div)
		return div
	}

	s.tick++
	s.emit()
	return nil
}

// advance covers one sampling interval of simulated time in integrator
// sub-steps, recomputing the control law before every sub-step so the
// actuators always see the freshest measurement.
func (s *Session) advance() error {
	remaining := s.opts.SamplingInterval.Seconds()
	target := s.targets()

	for remaining > 1e-9 {
		dt := s.opts.SubStep
		if dt > remaining {
			dt = remaining
		}
		s.controls = s.ctrl.Compute(s.state, target)

		next, err := s.integ.Step(s.model, s.state, s.controls, dt)
		if err != nil {
			return err
		}
		s.state = next
		s.simTime += dt
		remaining -= dt
	}

	if c, ok := s.integ.(interface{ Clamps() int64 }); ok {
		if n := c.Clamps(); n != s.clamps {
			s.log.WithFields(logrus.Fields{"tick": s.tick, "clamps": n}).
				Warn("state clamped to physical bounds")
			s.clamps = n
		}
	}
	return nil
}

// targets builds the per-variable reference: the equilibrium values,
// overridden by every active setpoint.
func (s *Session) targets() dynamo.State {
	t := s.eq.State()
	for _, sp := range s.setpoints {
		switch sp.Variable {
		case dynamo.VarLevel:
			t.SetLevel(sp.Tank, sp.Value)
		case dynamo.VarConcentration:
			t.SetConcentration(sp.Tank, sp.Value)
		}
	}
	return t
}

// drainCommands applies every queued command in receipt order. Commands
// arriving after the drain point are seen by the next tick, never
// dropped, never applied twice.
func (s *Session) drainCommands() {
	for {
		select {
		case cmd := <-s.commands:
			s.apply(cmd)
		default:
			return
		}
	}
}

func (s *Session) apply(cmd Command) {
	switch cmd.Type {
	case CmdSetSetpoint:
		key := setpointKey{tank: cmd.Tank, variable: cmd.Variable}
		s.setpoints[key] = Setpoint{
			Tank:     cmd.Tank,
			Variable: cmd.Variable,
			Value:    cmd.Value,
			Issued:   time.Now(),
		}
		s.log.WithFields(logrus.Fields{
			"tank": cmd.Tank, "variable": cmd.Variable, "value": cmd.Value,
		}).Info("setpoint applied")

	case CmdPause:
		if s.status == StatusRunning {
			s.status = StatusPaused
			s.log.WithField("simTime", s.simTime).Info("session paused")
		}

	case CmdResume:
		if s.status == StatusPaused {
			s.status = StatusRunning
			s.log.WithField("simTime", s.simTime).Info("session resumed")
		}

	case CmdReset:
		s.state = s.eq.State()
		s.controls = s.eq.Control
		s.setpoints = make(map[setpointKey]Setpoint)
		s.simTime = 0
		s.status = StatusRunning
		s.log.Info("session reset to equilibrium")

	default:
		s.log.WithField("command", cmd.Type).Warn("unknown command ignored")
	}
}

// emit fans one snapshot out to every subscriber without blocking: a
// full subscriber buffer drops that subscriber's copy, simulated time
// keeps advancing regardless of emission speed.
func (s *Session) emit() {
	snap := &Snapshot{
		Tick:      s.tick,
		SimTime:   s.simTime,
		State:     s.noise.Perturb(s.state),
		Control:   s.controls,
		Setpoints: s.activeSetpoints(),
	}
	for _, ch := range s.subs {
		select {
		case ch <- Event{Snapshot: snap}:
		default:
		}
	}
}

func (s *Session) activeSetpoints() []Setpoint {
	out := make([]Setpoint, 0, len(s.setpoints))
	for _, sp := range s.setpoints {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tank != out[j].Tank {
			return out[i].Tank < out[j].Tank
		}
		return out[i].Variable < out[j].Variable
	})
	return out
}

// teardown moves to Closed and releases the subscriber channels, sending
// the terminal error first when the close is a failure. Caller holds mu.
func (s *Session) teardown(terminal error) {
	if s.status == StatusClosed {
		return
	}
	s.status = StatusClosed
	for id, ch := range s.subs {
		if terminal != nil {
			select {
			case ch <- Event{Err: terminal}:
			default:
			}
		}
		delete(s.subs, id)
		close(ch)
	}
	s.log.Info("session closed")
}
