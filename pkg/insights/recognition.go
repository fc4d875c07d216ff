package insights

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultRecognitionTimeout = 30 * time.Minute
	defaultCancelGrace        = 10 * time.Second
	defaultStopTimeout        = 30 * time.Second
)

// Completion is a single-fire future. Only the first Resolve has an effect.
type Completion struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Resolve settles the future and reports whether this call did it.
func (c *Completion) Resolve(err error) bool {
	resolved := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		resolved = true
	})
	return resolved
}

func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err returns the outcome. It is nil until Done is closed.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the future is resolved.
func (c *Completion) Wait() error {
	<-c.done
	return c.err
}

type RecognitionOptions struct {
	// Timeout bounds the whole session, from start until the stop acknowledgment.
	Timeout time.Duration
	// CancelGrace is how long to wait for "session stopped" after a cancellation.
	CancelGrace time.Duration
	// StopTimeout bounds the wait for a stop acknowledgment.
	StopTimeout time.Duration
	// OnEvent is called from the aggregation goroutine for every event.
	OnEvent func(ev *RecognitionEvent)
}

func (o RecognitionOptions) withDefaults() RecognitionOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultRecognitionTimeout
	}
	if o.CancelGrace <= 0 {
		o.CancelGrace = defaultCancelGrace
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = defaultStopTimeout
	}
	return o
}

type recognitionRun struct {
	session    RecognitionSession
	agg        *TranscriptAggregator
	opts       RecognitionOptions
	tracker    *sessionTracker
	completion *Completion
	log        *logrus.Entry
}

// Recognize starts the session, feeds its events to agg from a single
// aggregation goroutine and returns once the session has stopped and the
// stop request was acknowledged. The transcript in agg is final when
// Recognize returns. The caller still owns the session and must Close it.
func Recognize(ctx context.Context, session RecognitionSession, agg *TranscriptAggregator, opts RecognitionOptions, log *logrus.Entry) error {
	r := &recognitionRun{
		session:    session,
		agg:        agg,
		opts:       opts.withDefaults(),
		completion: NewCompletion(),
		log:        log.WithField("method", "Recognize"),
	}
	r.tracker = newSessionTracker(r.log)

	recCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	select {
	case err := <-session.Start():
		if err != nil {
			return NewError(KindSessionStart, "start recognition", err)
		}
	case <-recCtx.Done():
		if err := r.stop(); err != nil {
			r.log.WithError(err).Warnln("stop after unacknowledged start failed")
		}
		return NewError(KindSessionStart, "start recognition", recCtx.Err())
	}
	r.tracker.moveTo(StateStarted)
	r.log.Infoln("continuous recognition started")

	go r.aggregate(recCtx)

	return r.completion.Wait()
}

func (r *recognitionRun) aggregate(ctx context.Context) {
	var (
		canceled   *RecognitionEvent
		graceTimer *time.Timer
		grace      <-chan time.Time
	)
	defer func() {
		if graceTimer != nil {
			graceTimer.Stop()
		}
	}()

	events := r.session.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				r.forceStop()
				r.completion.Resolve(NewError(KindRecognitionCanceled, "await session stopped", errors.New("event stream closed before the session stopped")))
				return
			}
			if r.opts.OnEvent != nil {
				r.opts.OnEvent(ev)
			}

			switch ev.Type {
			case EventRecognizing:
				r.tracker.moveTo(StateRecognizing)
			case EventRecognized:
				r.tracker.moveTo(StateRecognizing)
				if !r.agg.Add(ev) {
					r.log.WithField("reason", ev.Reason.String()).Debugln("utterance not recognized, skipping")
				}
			case EventCanceled:
				if !ev.IsTerminalCancellation() {
					r.log.Debugln("recognition reached the end of the audio stream")
					continue
				}
				if canceled != nil {
					continue
				}
				canceled = ev
				r.tracker.moveTo(StateCanceled)
				r.log.WithFields(logrus.Fields{
					"reason":    ev.CancellationReason.String(),
					"errorCode": ev.ErrorCode,
					"details":   ev.ErrorDetails,
				}).Warnln("recognition canceled by the service")
				graceTimer = time.NewTimer(r.opts.CancelGrace)
				grace = graceTimer.C
			case EventSessionStopped:
				r.completion.Resolve(r.finish(canceled))
				return
			}

		case <-grace:
			r.log.WithField("grace", r.opts.CancelGrace.String()).Warnln("session did not stop after cancellation, forcing stop")
			r.forceStop()
			r.completion.Resolve(canceledError(canceled, "await session stopped"))
			return

		case <-ctx.Done():
			r.log.WithError(ctx.Err()).Warnln("recognition did not finish in time, forcing stop")
			r.forceStop()
			err := NewError(KindRecognitionCanceled, "await session stopped", ctx.Err())
			if canceled != nil {
				err.Details = cancellationDetails(canceled)
			}
			r.completion.Resolve(err)
			return
		}
	}
}

// finish runs the second phase of the stop handshake after "session stopped".
func (r *recognitionRun) finish(canceled *RecognitionEvent) error {
	r.tracker.moveTo(StateStopping)
	err := r.stop()
	r.tracker.moveTo(StateStopped)

	if canceled != nil {
		return canceledError(canceled, "recognition")
	}
	if err != nil {
		return NewError(KindRecognitionCanceled, "stop recognition", err)
	}

	r.log.WithField("utterances", r.agg.Utterances()).Infoln("continuous recognition stopped")
	return nil
}

func (r *recognitionRun) forceStop() {
	r.tracker.moveTo(StateStopping)
	if err := r.stop(); err != nil {
		r.log.WithError(err).Warnln("forced stop failed")
	}
	r.tracker.moveTo(StateStopped)
}

func (r *recognitionRun) stop() error {
	timer := time.NewTimer(r.opts.StopTimeout)
	defer timer.Stop()

	select {
	case err := <-r.session.Stop():
		return err
	case <-timer.C:
		return fmt.Errorf("stop not acknowledged within %s", r.opts.StopTimeout)
	}
}

func canceledError(ev *RecognitionEvent, op string) *Error {
	if ev == nil {
		return NewError(KindRecognitionCanceled, op, errors.New("session canceled"))
	}
	return NewError(KindRecognitionCanceled, op, fmt.Errorf("session canceled: %s", ev.CancellationReason)).
		WithDetails(cancellationDetails(ev))
}

func cancellationDetails(ev *RecognitionEvent) string {
	if ev.ErrorCode == "" {
		return ev.ErrorDetails
	}
	return fmt.Sprintf("[%s] %s", ev.ErrorCode, ev.ErrorDetails)
}
