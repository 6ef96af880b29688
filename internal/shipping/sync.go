package shipping

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/openshop/checkout/internal/domain"
)

// SyncState is the observable state of the save pipeline.
type SyncState string

const (
	StateIdle            SyncState = "IDLE"
	StatePendingDebounce SyncState = "PENDING_DEBOUNCE"
	StateSaving          SyncState = "SAVING"
)

const (
	// DefaultDebounce is how long after the last edit a save fires.
	DefaultDebounce = 2 * time.Second

	// saveTimeout bounds a debounced background save.
	saveTimeout = 10 * time.Second
)

// Sync owns the debounced persistence channel for one shopper's shipping
// profile. A burst of edits coalesces into a single save carrying the last
// edit; FlushPending gives callers a synchronous escape hatch before an
// order submit; Dispose makes late timer fires no-ops.
//
// At most one outbound save is in flight at any time: every save path runs
// under saveMu, so a save requested while another is in progress queues
// behind it instead of racing it.
type Sync struct {
	gateway ProfileGateway
	userID  string
	delay   time.Duration

	mu       sync.Mutex
	profile  domain.ShippingProfile
	timer    *time.Timer
	gen      uint64 // bumped on every re-arm; stale timer fires check it
	armed    bool
	inFlight bool
	disposed bool

	saveMu sync.Mutex // serializes outbound saves
}

// NewSync creates a sync for one shopper. A non-positive delay falls back
// to DefaultDebounce.
func NewSync(gateway ProfileGateway, userID string, delay time.Duration) *Sync {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Sync{
		gateway: gateway,
		userID:  userID,
		delay:   delay,
	}
}

// Hydrate loads the stored profile, best-effort. A missing profile leaves
// the zero value in place; other load failures are logged and swallowed.
func (s *Sync) Hydrate(ctx context.Context) {
	stored, err := s.gateway.Load(ctx, s.userID)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			log.Printf("shipping profile load failed for user %s: %v", s.userID, err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.armed || s.inFlight {
		// An edit already happened; the session's copy wins.
		return
	}
	s.profile = *stored
}

// Profile returns the current in-session profile.
func (s *Sync) Profile() domain.ShippingProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// State reports the save pipeline state.
func (s *Sync) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.inFlight:
		return StateSaving
	case s.armed:
		return StatePendingDebounce
	default:
		return StateIdle
	}
}

// Update applies an edit and (re)arms the debounce timer. Only the last
// update inside the debounce window reaches the gateway.
func (s *Sync) Update(profile domain.ShippingProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}

	s.profile = profile

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.armed = true
	s.timer = time.AfterFunc(s.delay, func() { s.timerFired(gen) })
}

func (s *Sync) timerFired(gen uint64) {
	s.mu.Lock()
	if s.disposed || gen != s.gen {
		// Superseded by a newer edit, a flush, or teardown.
		s.mu.Unlock()
		return
	}
	s.armed = false
	complete := s.profile.Complete()
	s.mu.Unlock()

	if !complete {
		// Never persist a half-filled profile.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.save(ctx); err != nil {
		log.Printf("debounced shipping profile save failed for user %s: %v", s.userID, err)
	}
}

// SaveNow cancels any armed timer and saves immediately. Returns
// ErrProfileIncomplete when a required field is still empty.
func (s *Sync) SaveNow(ctx context.Context) error {
	complete, disposed := s.disarm()
	if disposed {
		return nil
	}
	if !complete {
		return ErrProfileIncomplete
	}
	return s.save(ctx)
}

// FlushPending cancels any armed timer and, if the profile is complete,
// performs an immediate save the caller awaits. Even when the profile is
// incomplete it waits out any in-flight save, so a submit that follows a
// flush always observes the last save as finished.
func (s *Sync) FlushPending(ctx context.Context) error {
	complete, disposed := s.disarm()
	if disposed {
		return nil
	}
	if !complete {
		// Wait out any in-flight save so the caller still observes it
		// as finished before proceeding.
		s.saveMu.Lock()
		defer s.saveMu.Unlock()
		return nil
	}
	return s.save(ctx)
}

// disarm cancels the timer and invalidates fired-but-not-yet-run callbacks.
func (s *Sync) disarm() (complete, disposed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.armed = false
	s.gen++
	return s.profile.Complete(), s.disposed
}

func (s *Sync) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	profile := s.profile
	profile.UpdatedAt = time.Now()
	s.inFlight = true
	s.mu.Unlock()

	err := s.gateway.Save(ctx, s.userID, profile)

	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
	return err
}

// Dispose cancels any armed timer and rejects further edits and saves.
// Called on session teardown; a timer that already fired becomes a no-op.
func (s *Sync) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.armed = false
	s.gen++
}
