// Package events wraps the controller-runtime manager's
// client-go record.EventRecorder with the per-(owner,reason) rate limiting the
// ensure, finalizer, and controller layers all need: a flapping child or a
// stuck health check must not flood a StellarNode's Kubernetes Events with
// duplicates.
package events

import (
	"fmt"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	"golang.org/x/time/rate"
)

// minInterval is how often the same (owner, reason) pair may produce a new
// Kubernetes Event; repeats within the window are dropped rather than queued.
const minInterval = 30 * time.Second

// Recorder rate-limits an underlying client-go EventRecorder per
// (involved-object UID, reason).
type Recorder struct {
	base record.EventRecorder

	mu       sync.Mutex
	limiters map[limiterKey]*rate.Limiter
}

type limiterKey struct {
	uid    types.UID
	reason string
}

// NewRecorder wraps base, typically obtained from
// mgr.GetEventRecorderFor("stellarnode-controller").
func NewRecorder(base record.EventRecorder) *Recorder {
	return &Recorder{base: base, limiters: make(map[limiterKey]*rate.Limiter)}
}

// Info records a Normal event for reason against owner if the rate limiter
// for that (owner, reason) pair allows it.
func (r *Recorder) Info(owner ctrlclient.Object, reason, message string) {
	r.emit(owner, corev1.EventTypeNormal, reason, message)
}

// Warn records a Warning event for reason against owner if the rate limiter
// for that (owner, reason) pair allows it.
func (r *Recorder) Warn(owner ctrlclient.Object, reason, message string) {
	r.emit(owner, corev1.EventTypeWarning, reason, message)
}

func (r *Recorder) emit(owner ctrlclient.Object, eventType, reason, message string) {
	if !r.allow(owner, reason) {
		return
	}
	r.base.Event(owner, eventType, reason, message)
}

func (r *Recorder) allow(owner ctrlclient.Object, reason string) bool {
	key := limiterKey{uid: owner.GetUID(), reason: reason}

	r.mu.Lock()
	lim, ok := r.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(minInterval), 1)
		r.limiters[key] = lim
	}
	r.mu.Unlock()

	return lim.Allow()
}

// Forget drops the rate-limiter state for owner, called once a StellarNode is
// fully deleted so the map does not grow unbounded across its lifetime.
func (r *Recorder) Forget(owner ctrlclient.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.limiters {
		if key.uid == owner.GetUID() {
			delete(r.limiters, key)
		}
	}
}

// Reasonf is a convenience formatter used by callers building a message from
// a child kind and name.
func Reasonf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
