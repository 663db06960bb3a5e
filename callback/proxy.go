package callback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wardenlab/wardenctl/domain/entities"
	dErrors "github.com/wardenlab/wardenctl/domain/errors"
	"github.com/wardenlab/wardenctl/domain/ports"
)

// Mode selects how the proxy satisfies capability calls. It is chosen once
// per process invocation and is immutable for the proxy's lifetime.
type Mode struct {
	path string
	kind modeKind
}

type modeKind int

const (
	modeDirect modeKind = iota
	modeRecord
	modeReplay
)

// Direct returns the pass-through mode: every call goes to the live backend.
func Direct() Mode {
	return Mode{kind: modeDirect}
}

// Record returns the recording mode: calls go to the live backend and every
// exchange is persisted to the session file at destination.
func Record(destination string) Mode {
	return Mode{kind: modeRecord, path: destination}
}

// Replay returns the replay mode: calls are served from the session file at
// source and no live backend is ever contacted.
func Replay(source string) Mode {
	return Mode{kind: modeReplay, path: source}
}

// Path returns the session file path for Record and Replay modes.
func (m Mode) Path() string {
	return m.path
}

func (m Mode) String() string {
	switch m.kind {
	case modeRecord:
		return "record"
	case modeReplay:
		return "replay"
	default:
		return "direct"
	}
}

// Proxy intermediates every capability call a sandboxed policy makes. It
// exclusively owns the session recorder or replay index; the backend gateway
// is borrowed and may be shared across evaluations.
type Proxy struct {
	mode     Mode
	gateway  ports.CapabilityGateway
	recorder *Recorder
	index    *Index
	logger   *slog.Logger
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithLogger sets the logger used for proxy diagnostics.
func WithLogger(logger *slog.Logger) ProxyOption {
	return func(p *Proxy) {
		p.logger = logger
	}
}

// NewProxy creates a proxy for the given mode. In Record mode the session
// file is created (or truncated) immediately; in Replay mode the session
// file is loaded and indexed before any evaluation starts, so an unreadable
// or empty session aborts up front.
func NewProxy(mode Mode, gateway ports.CapabilityGateway, opts ...ProxyOption) (*Proxy, error) {
	p := &Proxy{
		mode:    mode,
		gateway: gateway,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	switch mode.kind {
	case modeDirect, modeRecord:
		if gateway == nil {
			return nil, fmt.Errorf("%s mode requires a capability gateway", mode)
		}
	case modeReplay:
		// Replay never touches a backend; a gateway is ignored on purpose.
	}

	switch mode.kind {
	case modeRecord:
		recorder, err := OpenRecorder(mode.path)
		if err != nil {
			return nil, err
		}
		p.recorder = recorder
	case modeReplay:
		index, err := OpenIndex(mode.path)
		if err != nil {
			return nil, err
		}
		p.index = index
		p.logger.Debug("replay session loaded", "path", mode.path, "entries", index.Len())
	}

	return p, nil
}

// Mode returns the proxy's mode.
func (p *Proxy) Mode() Mode {
	return p.mode
}

// Close finalizes the session file in Record mode. It must run on every exit
// path, including error paths, so partial sessions stay readable.
func (p *Proxy) Close() error {
	if p.recorder == nil {
		return nil
	}
	return p.recorder.Close()
}

// Evaluation scopes one guest evaluation: calls are serialized and numbered
// by a sequence counter independent from any concurrent evaluation sharing
// the same proxy.
type Evaluation struct {
	mu       sync.Mutex
	proxy    *Proxy
	sequence uint64
}

// NewEvaluation starts a new evaluation scope over the proxy.
func (p *Proxy) NewEvaluation() *Evaluation {
	return &Evaluation{proxy: p}
}

// Call resolves one capability request per the active mode and returns the
// outcome handed back to the guest. The returned error is non-nil only for
// failures that compromise the determinism guarantee (the session store);
// backend failures and replay misses are folded into the outcome.
func (e *Evaluation) Call(ctx context.Context, req entities.CapabilityRequest) (entities.CapabilityOutcome, error) {
	key, err := Canonicalize(req)
	if err != nil {
		return entities.CapabilityOutcome{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.proxy
	switch p.mode.kind {
	case modeDirect:
		return p.gateway.Execute(ctx, req), nil

	case modeRecord:
		outcome := p.gateway.Execute(ctx, req)
		e.sequence++
		if err := p.recorder.Append(key, outcome, e.sequence); err != nil {
			return entities.CapabilityOutcome{}, err
		}
		return outcome, nil

	case modeReplay:
		outcome, ok := p.index.Take(key)
		if !ok {
			missErr := &dErrors.NotRecordedError{Key: key}
			p.logger.Error("replay session has no outcome for capability call; the session likely does not match this workload",
				"capability", req.Capability,
				"operation", req.Operation,
				"key", key,
			)
			return entities.FailureOutcome(entities.FailureKindNotRecorded, missErr.Error()), nil
		}
		return outcome, nil

	default:
		return entities.CapabilityOutcome{}, fmt.Errorf("unknown proxy mode %q", p.mode)
	}
}
