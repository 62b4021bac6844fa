package generation

import (
	"context"
	"sync"
	"time"

	"VoiceStudio/internal/models"

	"go.uber.org/zap"
)

// State of the tracked job.
type State int

const (
	StateIdle State = iota
	StateSubmitted
	StatePolling
	StateSucceeded
	StateFailed
)

// SubmitRequest is what the UI hands the poller when the user triggers a
// generation.
type SubmitRequest struct {
	Service   models.Service
	VoiceID   string
	Text      string
	SourceKey string
	FileName  string // original upload name, used as the title for conversions
}

type SubmitResponse struct {
	JobID     string `json:"jobId"`
	Throttled bool   `json:"throttled"`
}

type StatusResponse struct {
	Success  bool   `json:"success"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// API is the job submission/status contract of the server-action layer.
type API interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)
	Status(ctx context.Context, jobID string) (StatusResponse, error)
}

// TrackSink receives the finished artifact; the playback coordinator
// implements it.
type TrackSink interface {
	PlayTrack(track models.Track)
}

type NoticeKind int

const (
	NoticeThrottle NoticeKind = iota
	NoticeFailure
)

// Notice is a user-visible notification emitted by the poller.
type Notice struct {
	Kind    NoticeKind
	Message string
}

type Options struct {
	// Interval between status checks; 500ms when zero.
	Interval time.Duration
	// MaxTransientErrors caps consecutive transport failures before the job
	// is abandoned as failed; 5 when zero.
	MaxTransientErrors int
	// Notify receives throttle warnings and terminal failures. Optional.
	Notify func(Notice)
}

// Poller drives one generation job from submission to a terminal state on a
// fixed polling interval, then hands the finished track to the sink. At most
// one polling loop is active; submitting a new job cancels the previous
// loop first.
type Poller struct {
	api      API
	sink     TrackSink
	log      *zap.Logger
	interval time.Duration
	maxErrs  int
	notify   func(Notice)

	mu     sync.Mutex
	state  State
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(a API, sink TrackSink, log *zap.Logger, opts Options) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	maxErrs := opts.MaxTransientErrors
	if maxErrs <= 0 {
		maxErrs = 5
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(Notice) {}
	}
	return &Poller{
		api:      a,
		sink:     sink,
		log:      log,
		interval: interval,
		maxErrs:  maxErrs,
		notify:   notify,
	}
}

// Submit sends the request and starts the polling loop. The throttled flag
// is advisory; the job is tracked either way.
func (p *Poller) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	p.Cancel()

	p.mu.Lock()
	p.state = StateSubmitted
	p.mu.Unlock()

	resp, err := p.api.Submit(ctx, req)
	if err != nil {
		p.mu.Lock()
		p.state = StateIdle
		p.mu.Unlock()
		return resp, err
	}

	if resp.Throttled {
		p.notify(Notice{Kind: NoticeThrottle, Message: "You're hitting the limit! Requests beyond the rate will be queued."})
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.jobID = resp.JobID
	p.cancel = cancel
	p.done = done
	p.state = StatePolling
	p.mu.Unlock()

	go p.loop(loopCtx, resp.JobID, req, done)
	return resp, nil
}

// Cancel stops the active polling loop, if any. No state transitions happen
// after cancellation, even for a status call already in flight.
func (p *Poller) Cancel() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.jobID = ""
	if p.state == StateSubmitted || p.state == StatePolling {
		p.state = StateIdle
	}
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// JobID returns the tracked job, empty when no loop is active.
func (p *Poller) JobID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobID
}

func (p *Poller) loop(ctx context.Context, jobID string, req SubmitRequest, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	consecutiveErrs := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// the status call runs to completion before the next tick is
		// considered, so terminal transitions cannot race themselves
		status, err := p.api.Status(ctx, jobID)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			consecutiveErrs++
			p.log.Error("error polling for audio status",
				zap.String("job_id", jobID), zap.Error(err))
			if consecutiveErrs >= p.maxErrs {
				if p.settle(jobID, StateFailed) {
					p.notify(Notice{Kind: NoticeFailure, Message: "Generation failed. Please try again."})
				}
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(transientBackoff(consecutiveErrs, p.interval)):
			}
			continue
		}
		consecutiveErrs = 0

		if !status.Success {
			if p.settle(jobID, StateFailed) {
				p.log.Error("generation failed", zap.String("job_id", jobID))
				p.notify(Notice{Kind: NoticeFailure, Message: "Generation failed. Please try again."})
			}
			return
		}

		if status.AudioURL == "" {
			// still processing
			continue
		}

		// a cancellation that lands after the ctx check must not start
		// playback either, so the sink call rides on the commit
		if p.settle(jobID, StateSucceeded) {
			p.sink.PlayTrack(buildTrack(jobID, req, status.AudioURL))
		}
		return
	}
}

// settle records a terminal state and reports whether it committed. The
// commit is refused when the job was cancelled while the last status call
// was in flight, so no terminal side effect runs for a cancelled job.
func (p *Poller) settle(jobID string, state State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.jobID != jobID {
		return false
	}
	p.jobID = ""
	p.cancel = nil
	p.state = state
	return true
}

// buildTrack assembles the playable record from the original request plus
// the resolved location. The URL is guaranteed non-empty by the caller.
func buildTrack(jobID string, req SubmitRequest, audioURL string) models.Track {
	title := models.TitleFromText(req.Text)
	if req.Service == models.ServiceSeedVC {
		title = req.FileName
		if title == "" {
			title = "Voice changed audio"
		}
	}
	return models.Track{
		ID:        jobID,
		Title:     title,
		VoiceID:   req.VoiceID,
		AudioURL:  audioURL,
		Duration:  "0:30",
		Service:   req.Service,
		CreatedAt: time.Now().Format("1/2/2006"),
	}
}

// transientBackoff doubles the polling interval per consecutive transport
// failure, capped at ten seconds, so an unreachable endpoint is not hammered
// at full rate.
func transientBackoff(consecutive int, base time.Duration) time.Duration {
	d := base
	for i := 1; i < consecutive; i++ {
		d *= 2
		if d >= 10*time.Second {
			return 10 * time.Second
		}
	}
	return d
}
