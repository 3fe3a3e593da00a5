package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"copcam-go/internal/models"
	"copcam-go/internal/store"
)

// Broadcaster pushes a serialized detection event to live subscribers
type Broadcaster interface {
	Broadcast(data []byte)
}

// AlertPublisher fans a category-B alert out to the message broker
type AlertPublisher interface {
	PublishAlert(ctx context.Context, data []byte) error
}

// Option configures optional replay collaborators
type Option func(*Replay)

// WithAlerts attaches the broker alert path to replayed category-B events
func WithAlerts(p AlertPublisher) Option {
	return func(r *Replay) { r.alerts = p }
}

// Status is the answer to GET /simulation/status
type Status struct {
	Mode              string `json:"mode"`
	SimulationEnabled bool   `json:"simulation_enabled"`
	DataLoaded        bool   `json:"data_loaded"`
	IsRunning         bool   `json:"is_running"`
	TimelineEvents    int    `json:"timeline_events"`
}

// Replay walks the merged timeline with real-time pacing, re-deriving
// each event's full detection record via the nearest-neighbor join and
// applying the same category-B broadcast policy as live mode.
//
// At most one replay loop runs at a time: Start while running is
// rejected, Stop is idempotent and interrupts a pending pacing sleep
// without emitting the interrupted event.
type Replay struct {
	data        *Data
	store       *store.DetectionStore
	broadcaster Broadcaster
	alerts      AlertPublisher
	log         zerolog.Logger

	// sleep pauses for d, returning false if ctx was canceled first.
	// Replaced in tests to observe pacing without wall-clock delays.
	sleep func(ctx context.Context, d time.Duration) bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewReplay creates a replay engine over loaded simulation data.
// data may be nil when no artifacts were found; Start then fails and
// Status reports data_loaded=false.
func NewReplay(data *Data, st *store.DetectionStore, broadcaster Broadcaster, log zerolog.Logger, opts ...Option) *Replay {
	r := &Replay{
		data:        data,
		store:       st,
		broadcaster: broadcaster,
		log:         log,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Start launches the replay loop at the given speed multiplier
// (>1 speeds up, <1 slows down; <=0 defaults to 1.0). Starting while
// already running is rejected.
func (r *Replay) Start(speed float64) error {
	if speed <= 0 {
		speed = 1.0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("replay already running")
	}
	if r.data == nil || len(r.data.Timeline) == 0 {
		return fmt.Errorf("no simulation data loaded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.running = true

	r.log.Info().Float64("speed", speed).Int("events", len(r.data.Timeline)).Msg("Starting timeline replay")
	go r.run(ctx, speed, done)
	return nil
}

// Stop halts the replay loop. The running flag drops synchronously so
// a status query issued right after Stop reports stopped; stopping an
// already-stopped replay is a no-op.
func (r *Replay) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
	r.log.Info().Msg("Timeline replay stopped")
}

// IsRunning reports whether a replay loop is active
func (r *Replay) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Status reports the replay state for the status endpoint
func (r *Replay) Status(simulationEnabled bool) Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		Mode:              "live",
		SimulationEnabled: simulationEnabled,
		DataLoaded:        r.data != nil,
		IsRunning:         r.running,
	}
	if simulationEnabled {
		st.Mode = "simulation"
	}
	if r.data != nil {
		st.TimelineEvents = len(r.data.Timeline)
	}
	return st
}

func (r *Replay) run(ctx context.Context, speed float64, done chan struct{}) {
	defer func() {
		r.mu.Lock()
		// Only the current generation may reset the flag: a loop still
		// draining after Stop must not clobber a replay started since.
		if r.done == done {
			r.running = false
		}
		r.mu.Unlock()
		close(done)
	}()

	prev := r.data.Timeline[0].GlobalTime
	for i, event := range r.data.Timeline {
		if i > 0 {
			gap := event.GlobalTime - prev
			if gap < 0 {
				gap = 0
			}
			pause := time.Duration(gap / speed * float64(time.Second))
			if !r.sleep(ctx, pause) {
				return
			}
		}
		prev = event.GlobalTime

		if ctx.Err() != nil {
			return
		}
		r.emit(event)
	}
	r.log.Info().Int("events", len(r.data.Timeline)).Msg("Timeline replay complete")
}

// emit re-derives the full detection record for one timeline event,
// stores it, and pushes it to subscribers and the alerts subject if it
// is category B.
func (r *Replay) emit(event models.TimelineEvent) {
	det, ok := r.data.FindDetection(event.CameraID, event.PersonID, event.GlobalTime)
	if !ok {
		r.log.Debug().
			Str("camera_id", event.CameraID).
			Str("person_id", event.PersonID).
			Float64("global_time", event.GlobalTime).
			Msg("No detection record for timeline event")
		return
	}

	create := models.DetectionCreate{
		Detected:  true,
		Category:  det.Category,
		CameraID:  det.CameraID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		PersonID:  det.PersonID,
	}
	if cam, ok := models.CameraByID(models.DefaultCameras(), det.CameraID); ok {
		create.CameraID = cam.ID
		create.Coords = cam.Coords
	}
	if meta, ok := r.data.Criminals[det.PersonID]; ok {
		create.PersonName = meta.Name
		create.Crime = meta.Crime
		create.PersonImage = meta.FaceImage
	}

	stored := r.store.Add(create)
	if stored.Category != models.CategoryCriminal {
		return
	}
	data, err := stored.ToJSON()
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encode replay event")
		return
	}
	if r.broadcaster != nil {
		r.broadcaster.Broadcast(data)
	}
	if r.alerts != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.alerts.PublishAlert(ctx, data); err != nil {
			r.log.Warn().Err(err).Int("id", stored.ID).Msg("Failed to publish replay alert")
		}
	}
}
