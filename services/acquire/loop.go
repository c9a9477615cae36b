package acquire

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ad7124-go/drivers/ad7124"
	"ad7124-go/errcode"
	"ad7124-go/x/ring"
)

// Loop drives one Device. Start and Stop may be called from any goroutine;
// the consumer methods may be called concurrently with both.
type Loop struct {
	dev  *ad7124.Device
	cfg  Config
	conv [ad7124.NumChannels]ad7124.Conversion
	q    *ring.Ring[Sample]

	mu    sync.Mutex // serialises Start and Stop
	state atomic.Int32
	sess  *ad7124.Session
	stop  chan struct{}
	done  chan struct{}

	samples  atomic.Uint64
	misses   atomic.Uint64
	txErrs   atomic.Uint64
	overruns atomic.Uint64
}

// New validates cfg and returns an Idle loop. It does not touch the device.
func New(dev *ad7124.Device, cfg Config) (*Loop, error) {
	if dev == nil {
		return nil, errors.New("acquire: nil device")
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &Loop{
		dev:  dev,
		cfg:  cfg,
		conv: conversions(&cfg),
		q:    ring.New[Sample](cfg.QueueSize),
	}, nil
}

func (l *Loop) State() State { return State(l.state.Load()) }

func (l *Loop) setState(s State) { l.state.Store(int32(s)) }

// Start writes the setups, then the channels, then ADC_CTRL, and starts
// polling. On any write error the loop returns to Idle with the error.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.State() != Idle {
		return ErrAlreadyStarted
	}
	l.setState(Configuring)
	if err := l.configure(); err != nil {
		l.setState(Idle)
		return &errcode.E{C: errcode.MapDriverErr(err), Op: "acquire", Msg: "configure", Err: err}
	}
	sess, err := l.dev.Claim()
	if err != nil {
		l.setState(Idle)
		return &errcode.E{C: errcode.Busy, Op: "acquire", Msg: "claim", Err: err}
	}
	l.sess = sess
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.setState(Running)
	l.cfg.Logger.Printf("running %d channel(s), %s mode", len(l.cfg.Channels), l.cfg.Mode)

	go l.run(ctx, sess, l.stop, l.done)
	return nil
}

func (l *Loop) configure() error {
	for _, s := range l.cfg.Setups {
		if err := l.dev.SetSetupConfig(s.Index, s.Config); err != nil {
			return err
		}
		if err := l.dev.SetSetupFilter(s.Index, s.Filter); err != nil {
			return err
		}
		if s.Offset != nil {
			if err := l.dev.SetSetupOffset(s.Index, *s.Offset); err != nil {
				return err
			}
		}
		if s.Gain != nil {
			if err := l.dev.SetSetupGain(s.Index, *s.Gain); err != nil {
				return err
			}
		}
	}
	for _, c := range l.cfg.Channels {
		m := c.Map
		m.Enable = true
		if err := l.dev.SetChannel(c.Number, m); err != nil {
			return err
		}
	}
	ctrl := l.cfg.Control
	if l.cfg.Mode == ModeInline {
		ctrl.DataStatus = true
	}
	return l.dev.SetADCControl(ctrl)
}

// Stop signals the goroutine, waits for it to exit and releases the device.
// Queued samples stay available. Stop fails with ErrNotRunning unless the loop
// is Running, so a second Stop never blocks.
func (l *Loop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.State() != Running {
		return ErrNotRunning
	}
	l.setState(Stopping)
	close(l.stop)
	<-l.done
	l.sess.Release()
	l.sess = nil
	l.setState(Idle)
	st := l.Stats()
	l.cfg.Logger.Printf("stopped: %d samples, %d misses, %d transport errors, %d overruns",
		st.Samples, st.Misses, st.TransportErrors, st.Overruns)
	return nil
}

type pollResult uint8

const (
	pollReady pollResult = iota
	pollMiss
	pollStopped
)

func (l *Loop) run(ctx context.Context, sess *ad7124.Session, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		s, res := l.poll(ctx, sess, stop)
		switch res {
		case pollStopped:
			if err := ctx.Err(); err != nil {
				l.cfg.Logger.Printf("context done: %v", err)
			}
			return
		case pollMiss:
			l.misses.Add(1)
		case pollReady:
			if !l.q.Push(s) {
				l.overruns.Add(1)
				continue
			}
			l.samples.Add(1)
		}
	}
}

// poll waits for one conversion, bounded by MaxRetries and PollTimeout.
// Transport errors count as not ready.
func (l *Loop) poll(ctx context.Context, sess *ad7124.Session, stop <-chan struct{}) (Sample, pollResult) {
	var deadline time.Time
	if l.cfg.PollTimeout > 0 {
		deadline = time.Now().Add(l.cfg.PollTimeout)
	}
	for i := 0; i < l.cfg.MaxRetries; i++ {
		select {
		case <-stop:
			return Sample{}, pollStopped
		case <-ctx.Done():
			return Sample{}, pollStopped
		default:
		}

		raw, st, err := l.read(sess)
		switch {
		case err != nil:
			if l.txErrs.Add(1) == 1 {
				l.cfg.Logger.Printf("poll: %v (further errors counted only)", err)
			}
		case st.Ready:
			return l.sample(raw, st), pollReady
		}

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		if l.cfg.RetryBackoff > 0 {
			t := time.NewTimer(l.cfg.RetryBackoff)
			select {
			case <-stop:
				t.Stop()
				return Sample{}, pollStopped
			case <-ctx.Done():
				t.Stop()
				return Sample{}, pollStopped
			case <-t.C:
			}
		}
	}
	return Sample{}, pollMiss
}

func (l *Loop) read(sess *ad7124.Session) (uint32, ad7124.Status, error) {
	if l.cfg.Mode == ModeInline {
		raw, b, err := sess.ReadRegisterWithStatus(ad7124.RegData)
		return raw, ad7124.DecodeStatus(b), err
	}
	st, err := sess.ReadStatus()
	if err != nil || !st.Ready {
		return 0, st, err
	}
	raw, err := sess.ReadRegister(ad7124.RegData)
	return raw, st, err
}

func (l *Loop) sample(raw uint32, st ad7124.Status) Sample {
	conv := l.conv[st.Channel&0x0F]
	return Sample{
		Time:    time.Now(),
		Channel: st.Channel,
		Raw:     raw & ad7124.CodeMask,
		Kind:    conv.Kind,
		Value:   conv.Apply(raw),
		Err:     st.Error,
	}
}

// Next blocks until a sample is queued or ctx is done.
func (l *Loop) Next(ctx context.Context) (Sample, error) {
	for {
		if s, ok := l.q.Pop(); ok {
			return s, nil
		}
		select {
		case <-l.q.Readable():
		case <-ctx.Done():
			return Sample{}, ctx.Err()
		}
	}
}

func (l *Loop) TryNext() (Sample, bool) { return l.q.Pop() }

// Drain returns every queued sample, oldest first.
func (l *Loop) Drain() []Sample { return l.q.Drain() }

// Ready is signalled whenever a sample is queued.
func (l *Loop) Ready() <-chan struct{} { return l.q.Readable() }

// Len is the number of queued samples.
func (l *Loop) Len() int { return l.q.Len() }

func (l *Loop) Stats() Stats {
	return Stats{
		Samples:         l.samples.Load(),
		Misses:          l.misses.Load(),
		TransportErrors: l.txErrs.Load(),
		Overruns:        l.overruns.Load(),
	}
}
