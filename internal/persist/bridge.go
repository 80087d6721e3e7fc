// Package persist bridges the in-memory filesystem tree and a durable
// key-value store. The bridge owns the connect lifecycle, loads the
// persisted tree once the host is ready, and writes snapshots back on
// demand.
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fruitsalade/saladefs/internal/kvstore"
	"github.com/fruitsalade/saladefs/internal/logging"
	"github.com/fruitsalade/saladefs/internal/metrics"
	"github.com/fruitsalade/saladefs/pkg/lifecycle"
	"github.com/fruitsalade/saladefs/pkg/retry"
	"github.com/fruitsalade/saladefs/pkg/vfs"
)

const (
	// RecordKey is the store key the whole tree is persisted under.
	RecordKey = "fs"

	// SignalStoreConnected fires when the store connection succeeds.
	SignalStoreConnected = "store:connected"

	// SignalStoreError fires when the store connection fails for good.
	SignalStoreError = "store:error"

	// SignalReady is fired by the host once it wants the tree loaded.
	SignalReady = "host:ready"
)

// ErrDegraded is returned by Load and Save while the store is
// unreachable. The in-memory tree keeps working; only durability is
// lost.
var ErrDegraded = errors.New("persist: store unavailable, running degraded")

// State tracks the bridge lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateConnected
	StateDegraded
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Options configures a Bridge.
type Options struct {
	// ConnectTimeout bounds how long Connect waits for the store to
	// come up before entering degraded mode. Zero means 10s.
	ConnectTimeout time.Duration

	// Retry governs the connect attempts inside the timeout window.
	Retry retry.Config
}

// Bridge connects a filesystem tree to a kvstore backend. The tree it
// hands out is stable: Load merges persisted content into the same root
// rather than replacing it, so callers can hold the *Dir across loads.
type Bridge struct {
	store   kvstore.Store
	signals *lifecycle.Signals
	opts    Options

	mu       sync.Mutex
	root     *vfs.Dir
	state    State
	loadOnce sync.Once
}

// New creates a Bridge over the given store and signal hub.
func New(store kvstore.Store, signals *lifecycle.Signals, opts Options) *Bridge {
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.Retry == (retry.Config{}) {
		opts.Retry = retry.DefaultConfig()
	}
	return &Bridge{
		store:   store,
		signals: signals,
		opts:    opts,
		root:    vfs.NewDir(""),
		state:   StateUninitialized,
	}
}

// Root returns the tree root. The pointer stays valid for the life of
// the bridge.
func (b *Bridge) Root() *vfs.Dir {
	return b.root
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Connect opens the store, retrying within the connect window. On
// failure or timeout the bridge enters degraded mode instead of
// returning an error; the tree stays usable in memory.
func (b *Bridge) Connect(ctx context.Context) {
	connectCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Register for the outcome before the open goroutine can fire it.
	watch := b.signals.Watch(
		[]string{SignalStoreConnected},
		[]string{SignalStoreError})

	go func() {
		err := b.opts.Retry.Do(connectCtx, func() error {
			if openErr := b.store.Open(connectCtx); openErr != nil {
				return retry.Retryable(openErr)
			}
			return nil
		})
		if err != nil {
			logging.Error("store connect failed",
				zap.String("backend", b.store.Type()),
				zap.Error(err))
			b.signals.Notify(SignalStoreError)
			return
		}
		b.signals.Notify(SignalStoreConnected)
	}()

	_, err := watch.Wait(ctx, b.opts.ConnectTimeout)
	if err != nil {
		b.setState(StateDegraded)
		metrics.SetDegraded(true)
		logging.Warn("entering degraded mode, tree is memory only",
			zap.String("backend", b.store.Type()),
			zap.Error(err))
		return
	}

	b.setState(StateConnected)
	metrics.SetDegraded(false)
	logging.Info("store connected", zap.String("backend", b.store.Type()))
}

// Load reads the persisted record and merges it into the root. A
// missing record loads an empty tree. Decode or read failures leave the
// tree untouched.
func (b *Bridge) Load(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateDegraded:
		return ErrDegraded
	case StateUninitialized:
		return fmt.Errorf("persist: load before connect")
	}

	start := time.Now()

	data, err := b.store.Get(ctx, RecordKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		b.state = StateLoaded
		metrics.RecordLoad(time.Since(start), true)
		logging.Info("no persisted tree, starting empty")
		return nil
	}
	if err != nil {
		metrics.RecordLoad(time.Since(start), false)
		return fmt.Errorf("load tree: %w", err)
	}

	loaded, err := vfs.UnmarshalRecord(data)
	if err != nil {
		metrics.RecordLoad(time.Since(start), false)
		return fmt.Errorf("decode tree: %w", err)
	}

	b.root.Adopt(loaded)
	b.state = StateLoaded
	metrics.RecordLoad(time.Since(start), true)
	metrics.SetTreeStats(vfs.CountEntries(b.root), b.root.Size())
	logging.Info("tree loaded",
		zap.Int("entries", vfs.CountEntries(b.root)),
		zap.Int64("bytes", b.root.Size()))
	return nil
}

// Save writes the current tree to the store. In degraded mode it fails
// with ErrDegraded so data loss is observable, never silent.
func (b *Bridge) Save(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateDegraded:
		logging.Warn("save skipped, store degraded")
		return ErrDegraded
	case StateUninitialized:
		return fmt.Errorf("persist: save before connect")
	}

	start := time.Now()

	data, err := vfs.MarshalRecord(b.root)
	if err != nil {
		metrics.RecordSave(time.Since(start), false)
		return fmt.Errorf("encode tree: %w", err)
	}
	if err := b.store.Put(ctx, RecordKey, data); err != nil {
		metrics.RecordSave(time.Since(start), false)
		return fmt.Errorf("save tree: %w", err)
	}

	metrics.RecordSave(time.Since(start), true)
	metrics.SetTreeStats(vfs.CountEntries(b.root), b.root.Size())
	logging.Debug("tree saved", zap.Int("bytes", len(data)))
	return nil
}

// Run connects the store, then waits in the background for the host
// ready signal and performs the initial load exactly once.
func (b *Bridge) Run(ctx context.Context) {
	b.Connect(ctx)

	ready := b.signals.Once(SignalReady)
	go func() {
		select {
		case <-ready:
		case <-ctx.Done():
			return
		}
		b.loadOnce.Do(func() {
			if err := b.Load(ctx); err != nil {
				logging.Error("initial load failed", zap.Error(err))
			}
		})
	}()
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}
