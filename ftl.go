package dftl

import (
	"context"
	"time"

	"github.com/dftlsim/dftl-go/ring"
)

// Worker is the single request-loop goroutine of spec.md section 5:
// "one worker per device, no locks -- mutual exclusion is achieved by
// ownership, not synchronization." It owns the Device exclusively; the
// only cross-goroutine surface is the pair of rings per poller index.
// Mirrors dftl.c's ftl_thread.
type Worker struct {
	d *Device

	toFTL    []*ring.Ring[*Request]
	toPoller []*ring.Ring[*Request]
}

// NewWorker builds a Worker with numPollers independent ring pairs, each
// built by ring.New(ringCapacity) (see ring.New for the usable capacity).
func NewWorker(d *Device, numPollers, ringCapacity int) *Worker {
	w := &Worker{
		d:        d,
		toFTL:    make([]*ring.Ring[*Request], numPollers),
		toPoller: make([]*ring.Ring[*Request], numPollers),
	}
	for i := range w.toFTL {
		w.toFTL[i] = ring.New[*Request](ringCapacity)
		w.toPoller[i] = ring.New[*Request](ringCapacity)
	}
	return w
}

// ToFTL returns the submission ring for poller i, the producer side of
// which belongs to whatever code accepts incoming Requests.
func (w *Worker) ToFTL(i int) *ring.Ring[*Request] { return w.toFTL[i] }

// ToPoller returns the completion ring for poller i, the consumer side of
// which belongs to whatever code waits on finished Requests.
func (w *Worker) ToPoller(i int) *ring.Ring[*Request] { return w.toPoller[i] }

// Run drives the request loop until ctx is canceled. dataplaneReady gates
// the loop's start the way dftl.c's ftl_thread polls
// *ssd->dataplane_started_ptr every 100ms before touching the rings;
// passing a channel that is never closed makes Run wait forever, which is
// the same as FEMU's dataplane never coming up.
func (w *Worker) Run(ctx context.Context, dataplaneReady <-chan struct{}) error {
	select {
	case <-dataplaneReady:
	case <-ctx.Done():
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		idle := true
		for i := range w.toFTL {
			req, ok := w.toFTL[i].Pop()
			if !ok {
				continue
			}
			idle = false

			var lat int64
			switch req.Opcode {
			case OpWrite:
				lat = w.d.Write(req)
			case OpRead:
				lat = w.d.Read(req)
			case OpDSM:
				lat = 0
			}
			req.ReqLat = lat
			req.ExpireTime = req.Stime + lat

			for !w.toPoller[i].Push(req) {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}

			if w.d.shouldGC() {
				w.d.doGC(false)
			}
		}

		if idle {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Microsecond):
			}
		}
	}
}
