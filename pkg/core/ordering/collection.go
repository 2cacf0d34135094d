package ordering

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wadjakorntonsri/studio-cms/pkg/apperr"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

// State is the reconciliation state of a Collection.
type State int

const (
	// StateClean: memory matches the last persisted order or a write is in flight.
	StateClean State = iota
	// StateReconciling: a failed write is being repaired by reloading from the store.
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateReconciling:
		return "reconciling"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	defaultPersistTimeout = 10 * time.Second
	msgPersistFailed      = "failed to update order"
	msgReloadFailed       = "failed to reload collection"
)

type Option func(*Collection)

func WithNotifier(n ports.Notifier) Option {
	return func(c *Collection) { c.notifier = n }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Collection) { c.log = l }
}

// WithObserver registers a callback invoked on every state transition.
func WithObserver(fn func(from, to State)) Option {
	return func(c *Collection) { c.observe = fn }
}

// WithOnPersisted registers a callback invoked after the store accepted a write.
func WithOnPersisted(fn func(collection string)) Option {
	return func(c *Collection) { c.onPersisted = fn }
}

func WithPersistTimeout(d time.Duration) Option {
	return func(c *Collection) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// job is a pending write. Jobs coalesce: deletes accumulate and updates always
// hold the newest full {id, sequence} set.
type job struct {
	epoch   uint64
	deletes []string
	updates []domain.SequenceUpdate
}

// Collection is the in-memory, optimistically updated view of one ordered
// collection. Mutations apply immediately and are persisted by a single
// background worker in epoch order.
type Collection struct {
	name        string
	store       ports.DocumentStore
	notifier    ports.Notifier
	log         *logger.Logger
	observe     func(from, to State)
	onPersisted func(collection string)
	timeout     time.Duration

	mu      sync.Mutex
	items   []domain.OrderedItem
	state   State
	epoch   uint64
	pending *job
	busy    chan struct{} // closed once no write is pending or in flight
	refetch bool          // an append committed while a reload was fetching

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open loads the collection from the store and starts its persistence worker.
// Rows with gaps or duplicate sequences are renumbered and the repair is persisted.
func Open(ctx context.Context, name string, store ports.DocumentStore, opts ...Option) (*Collection, error) {
	c := &Collection{
		name:    name,
		store:   store,
		timeout: defaultPersistTimeout,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	c.log = c.log.WithCollection(name)

	fetched, err := store.FetchCollection(ctx, name)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodePersistence, "failed to load collection")
	}
	c.items = Normalize(fetched)

	go c.run()

	if NeedsRenumber(fetched) {
		c.log.Warn("collection loaded with sparse sequences, renumbering", "items", len(fetched))
		c.mu.Lock()
		c.scheduleLocked(nil)
		c.mu.Unlock()
	}
	return c, nil
}

func (c *Collection) Name() string { return c.name }

// Items returns a copy of the current in-memory order.
func (c *Collection) Items() []domain.OrderedItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Item returns the item with the given id.
func (c *Collection) Item(id string) (domain.OrderedItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.items, id); i >= 0 {
		return c.items[i], true
	}
	return domain.OrderedItem{}, false
}

func (c *Collection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Epoch is incremented by every mutation and reload.
func (c *Collection) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Snapshot is a consistent view of a Collection at one epoch.
type Snapshot struct {
	State State
	Epoch uint64
	Items []domain.OrderedItem
}

func (c *Collection) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Epoch: c.epoch, Items: c.snapshotLocked()}
}

// Move applies a drag-and-drop move and schedules persistence. Invalid or
// no-op moves return the current order and schedule nothing.
func (c *Collection) Move(from, to int) ([]domain.OrderedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkWritableLocked(); err != nil {
		return c.snapshotLocked(), err
	}

	next, changed := Move(c.items, from, to)
	if !changed {
		c.log.Debug("move ignored", "from", from, "to", to, "items", len(c.items))
		return c.snapshotLocked(), nil
	}
	c.items = next
	c.scheduleLocked(nil)
	return c.snapshotLocked(), nil
}

// Reorder replaces the order with ids, which must be a permutation of the current ids.
func (c *Collection) Reorder(ids []string) ([]domain.OrderedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkWritableLocked(); err != nil {
		return c.snapshotLocked(), err
	}

	next, err := Reorder(c.items, ids)
	if err != nil {
		return c.snapshotLocked(), err
	}
	if sameOrder(c.items, next) {
		return c.snapshotLocked(), nil
	}
	c.items = next
	c.scheduleLocked(nil)
	return c.snapshotLocked(), nil
}

// InsertAppend creates the document in the store and appends the new item.
// The store call must succeed before the item becomes visible.
func (c *Collection) InsertAppend(ctx context.Context, payload domain.Payload) (domain.OrderedItem, error) {
	c.mu.Lock()
	if err := c.checkWritableLocked(); err != nil {
		c.mu.Unlock()
		return domain.OrderedItem{}, err
	}
	sequence := len(c.items)
	c.mu.Unlock()

	id, err := c.store.CreateItem(ctx, c.name, sequence, payload)
	if err != nil {
		return domain.OrderedItem{}, apperr.Wrap(err, apperr.CodePersistence, "failed to create item")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	item := domain.OrderedItem{ID: id, Sequence: sequence, Payload: payload}
	// a reload running now may have fetched before the row existed
	c.refetch = true
	if c.state == StateReconciling {
		return item, nil
	}
	if i := indexOf(c.items, id); i >= 0 {
		// a reload already picked the row up
		return c.items[i], nil
	}
	c.items = InsertAppend(c.items, item)
	item = c.items[len(c.items)-1]
	if item.Sequence != sequence {
		c.log.Info("append raced with another mutation, rewriting order", "id", id)
		c.scheduleLocked(nil)
	} else {
		c.epoch++
	}
	return item, nil
}

// Remove drops the item and schedules its deletion plus the renumbered order.
// Removing an unknown id is a no-op and reports false.
func (c *Collection) Remove(id string) ([]domain.OrderedItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkWritableLocked(); err != nil {
		return c.snapshotLocked(), false, err
	}

	next, removed := Remove(c.items, id)
	if !removed {
		return c.snapshotLocked(), false, nil
	}
	c.items = next
	c.scheduleLocked([]string{id})
	return c.snapshotLocked(), true, nil
}

// ReplacePayload updates the payload of an item already persisted by the caller.
func (c *Collection) ReplacePayload(id string, payload domain.Payload) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := indexOf(c.items, id)
	if i < 0 {
		return false
	}
	items := make([]domain.OrderedItem, len(c.items))
	copy(items, c.items)
	items[i].Payload = payload
	c.items = items
	return true
}

// Reload replaces the in-memory state with the store's and returns to Clean.
// It fetches again if an append committed while the fetch was running.
func (c *Collection) Reload(ctx context.Context) error {
	var fetched []domain.OrderedItem
	for {
		c.mu.Lock()
		c.refetch = false
		c.mu.Unlock()

		var err error
		fetched, err = c.store.FetchCollection(ctx, c.name)
		if err != nil {
			return apperr.Wrap(err, apperr.CodePersistence, msgReloadFailed)
		}

		c.mu.Lock()
		if !c.refetch {
			break
		}
		c.mu.Unlock()
		c.log.Debug("append landed during reload, fetching again")
	}

	// c.mu is held
	c.items = Normalize(fetched)
	c.pending = nil
	c.epoch++
	from, changed := c.swapStateLocked(StateClean)
	if NeedsRenumber(fetched) {
		c.scheduleLocked(nil)
	}
	c.mu.Unlock()

	if changed {
		c.transitioned(from, StateClean)
	}
	if c.onPersisted != nil {
		c.onPersisted(c.name)
	}
	return nil
}

// Flush waits until no write is pending or in flight.
func (c *Collection) Flush(ctx context.Context) error {
	c.mu.Lock()
	busy := c.busy
	c.mu.Unlock()
	if busy == nil {
		return nil
	}
	select {
	case <-busy:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker once the in-flight write, if any, returns.
// Writes still pending are dropped.
func (c *Collection) Close() error {
	c.closeOnce.Do(func() {
		close(c.quit)
		<-c.done

		c.mu.Lock()
		if c.pending != nil {
			c.log.Warn("dropping pending write on close", "epoch", c.pending.epoch)
		}
		c.pending = nil
		c.releaseBusyLocked()
		c.mu.Unlock()
	})
	return nil
}

func (c *Collection) checkWritableLocked() error {
	if c.state == StateReconciling {
		return apperr.Newf(apperr.CodeReconciling, "collection %s is reloading after a failed update", c.name)
	}
	return nil
}

func (c *Collection) snapshotLocked() []domain.OrderedItem {
	out := make([]domain.OrderedItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection) scheduleLocked(deletes []string) {
	c.epoch++
	if c.pending == nil {
		c.pending = &job{}
	}
	c.pending.epoch = c.epoch
	c.pending.deletes = append(c.pending.deletes, deletes...)
	c.pending.updates = Updates(c.items)
	if c.busy == nil {
		c.busy = make(chan struct{})
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Collection) releaseBusyLocked() {
	if c.busy != nil {
		close(c.busy)
		c.busy = nil
	}
}

func (c *Collection) swapStateLocked(to State) (State, bool) {
	from := c.state
	c.state = to
	return from, from != to
}

func (c *Collection) transitioned(from, to State) {
	c.log.Debug("state transition", "from", from.String(), "to", to.String())
	if c.observe != nil {
		c.observe(from, to)
	}
}

func (c *Collection) run() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case <-c.wake:
		}
		for {
			select {
			case <-c.quit:
				return
			default:
			}
			if !c.drainOne() {
				break
			}
		}
	}
}

// drainOne writes the pending job, if any. It reports false when idle.
func (c *Collection) drainOne() bool {
	c.mu.Lock()
	j := c.pending
	c.pending = nil
	if j == nil {
		c.releaseBusyLocked()
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	if err := c.write(j); err != nil {
		c.fail(j, err)
		return true
	}

	c.log.Debug("order persisted", "epoch", j.epoch, "items", len(j.updates), "deleted", len(j.deletes))
	if c.onPersisted != nil {
		c.onPersisted(c.name)
	}
	return true
}

func (c *Collection) write(j *job) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	for _, id := range j.deletes {
		if err := c.store.DeleteItem(ctx, c.name, id); err != nil {
			return fmt.Errorf("delete item %s: %w", id, err)
		}
	}
	if len(j.updates) == 0 {
		return nil
	}
	if err := c.store.BatchUpdateSequences(ctx, c.name, j.updates); err != nil {
		return fmt.Errorf("batch update sequences: %w", err)
	}
	return nil
}

// fail discards the optimistic state and reloads the authoritative one.
func (c *Collection) fail(j *job, err error) {
	c.log.Error("failed to persist order", "epoch", j.epoch, "error", err)
	c.notify(domain.LevelError, msgPersistFailed)

	c.mu.Lock()
	c.pending = nil
	from, changed := c.swapStateLocked(StateReconciling)
	c.mu.Unlock()
	if changed {
		c.transitioned(from, StateReconciling)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.Reload(ctx); err != nil {
		c.log.Error("reload after failed write", "error", err)
		c.notify(domain.LevelError, msgReloadFailed)
	}
}

func (c *Collection) notify(level domain.NotificationLevel, msg string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(context.Background(), domain.Notification{
		Level:      level,
		Collection: c.name,
		Message:    msg,
		At:         time.Now(),
	})
}

// NeedsRenumber reports whether stored rows, in any order, fail to carry 0..n-1.
func NeedsRenumber(fetched []domain.OrderedItem) bool {
	sorted := make([]domain.OrderedItem, len(fetched))
	copy(sorted, fetched)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})
	return !IsDense(sorted)
}

func sameOrder(a, b []domain.OrderedItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
