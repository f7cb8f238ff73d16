package stagedit

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
)

// In-memory entity system for tests: MemStore satisfies Backend and Model,
// its views satisfy View, and its transactions stage mutations that apply
// atomically on Commit. Intended for exercising sessions without a real
// backend; remote updates, commit failures, and writer capabilities are all
// scriptable.

// MemStore is an in-memory record table.
type MemStore struct {
	mu      sync.Mutex
	records map[string]map[string]any
	subs    map[string]map[int]func()
	nextSub int

	// CommitErr, when non-nil, rejects every Commit with this error and
	// applies nothing. Clear it to let commits through again.
	CommitErr error

	// SetOnly lists fields whose writers expose only Set.
	// Unwritable lists fields whose writers expose neither Replace nor Set.
	// All other fields expose Replace.
	SetOnly    map[string]bool
	Unwritable map[string]bool

	// LastTx is the most recent transaction handed out by Begin.
	LastTx *MemTx
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		records:    make(map[string]map[string]any),
		subs:       make(map[string]map[int]func()),
		SetOnly:    make(map[string]bool),
		Unwritable: make(map[string]bool),
	}
}

// Put seeds a record outside any transaction and returns its view.
func (st *MemStore) Put(values map[string]any) *MemView {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := ulid.Make().String()
	record := make(map[string]any, len(values))
	for k, v := range values {
		record[k] = v
	}
	st.records[id] = record
	return &MemView{st: st, id: id}
}

// View returns the view for an existing record id, or nil.
func (st *MemStore) View(id string) *MemView {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.records[id]; !ok {
		return nil
	}
	return &MemView{st: st, id: id}
}

// UpdateRemote applies an external change to a record immediately and
// notifies its subscribers, simulating a remote peer's committed write.
func (st *MemStore) UpdateRemote(id string, changes map[string]any) {
	st.mu.Lock()
	record := st.records[id]
	for k, v := range changes {
		record[k] = v
	}
	fns := st.subscribersLocked(id)
	st.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ActiveSubs returns the number of live subscriptions on a record. Tests
// use it to assert release-exactly-once.
func (st *MemStore) ActiveSubs(id string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.subs[id])
}

// Begin implements Backend. The transaction is retained in LastTx so tests
// can assert on exactly which writes a submit issued.
func (st *MemStore) Begin(ctx context.Context) (Transaction, error) {
	tx := &MemTx{st: st}
	st.mu.Lock()
	st.LastTx = tx
	st.mu.Unlock()
	return tx, nil
}

// memTxSource lets wrapper transactions (embedding *MemTx) work with
// MemStore views and models.
type memTxSource interface{ Unwrap() *MemTx }

// Unwrap returns the transaction itself. Test wrappers embedding *MemTx
// inherit it, so MemStore can reach the staging list through any wrapper.
func (tx *MemTx) Unwrap() *MemTx { return tx }

// Create implements Model: the record is staged against tx and becomes
// readable only when the transaction commits.
func (st *MemStore) Create(ctx context.Context, tx Transaction, values map[string]any) (View, error) {
	mtx := tx.(memTxSource).Unwrap()
	id := ulid.Make().String()
	record := make(map[string]any, len(values))
	for k, v := range values {
		record[k] = v
	}
	mtx.ops = append(mtx.ops, func() {
		st.records[id] = record
	})
	return &MemView{st: st, id: id}, nil
}

func (st *MemStore) subscribersLocked(id string) []func() {
	fns := make([]func(), 0, len(st.subs[id]))
	for _, fn := range st.subs[id] {
		fns = append(fns, fn)
	}
	return fns
}

// MemView is the live view of one record.
type MemView struct {
	st *MemStore
	id string
}

// ID implements View.
func (v *MemView) ID() string { return v.id }

// Field implements View. Nested maps are returned as copies so callers
// cannot mutate the record outside a transaction.
func (v *MemView) Field(name string) (any, bool) {
	v.st.mu.Lock()
	defer v.st.mu.Unlock()
	record, ok := v.st.records[v.id]
	if !ok {
		return nil, false
	}
	val, ok := record[name]
	if !ok {
		return nil, false
	}
	if nested, isMap := val.(map[string]any); isMap {
		clone := make(map[string]any, len(nested))
		for k, nv := range nested {
			clone[k] = nv
		}
		return clone, true
	}
	return val, true
}

// Edit implements View.
func (v *MemView) Edit(tx Transaction) (MutationHandle, error) {
	return &memHandle{tx: tx.(memTxSource).Unwrap(), view: v}, nil
}

// Subscribe implements View.
func (v *MemView) Subscribe(fn func()) Subscription {
	v.st.mu.Lock()
	defer v.st.mu.Unlock()
	if v.st.subs[v.id] == nil {
		v.st.subs[v.id] = make(map[int]func())
	}
	id := v.st.nextSub
	v.st.nextSub++
	v.st.subs[v.id][id] = fn
	return &memSub{st: v.st, view: v.id, id: id}
}

// UpdateRemote applies an external change to this record, see
// MemStore.UpdateRemote.
func (v *MemView) UpdateRemote(changes map[string]any) {
	v.st.UpdateRemote(v.id, changes)
}

// Fields returns a copy of the record's current values.
func (v *MemView) Fields() map[string]any {
	v.st.mu.Lock()
	defer v.st.mu.Unlock()
	record := v.st.records[v.id]
	clone := make(map[string]any, len(record))
	for k, val := range record {
		clone[k] = val
	}
	return clone
}

type memSub struct {
	st   *MemStore
	view string
	id   int
}

func (s *memSub) Release() {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	delete(s.st.subs[s.view], s.id)
}

// MemTx stages mutations and applies them all on Commit, or none when the
// store's CommitErr is armed.
type MemTx struct {
	st        *MemStore
	ops       []func()
	writers   []string
	committed bool

	// Writes records every field write staged through mutation handles,
	// in application order, for assertions on exactly-what-was-issued.
	Writes []FieldWrite
}

// FieldWrite is one staged mutation, recorded for test assertions.
type FieldWrite struct {
	Field string
	Op    string // "replace" or "set"
	Value any
}

// Commit implements Transaction.
func (tx *MemTx) Commit(ctx context.Context) error {
	tx.st.mu.Lock()
	if err := tx.st.CommitErr; err != nil {
		tx.st.mu.Unlock()
		return err
	}
	for _, op := range tx.ops {
		op()
	}
	tx.committed = true
	touched := make(map[string]bool)
	for _, w := range tx.writers {
		touched[w] = true
	}
	var fns []func()
	for id := range touched {
		fns = append(fns, tx.st.subscribersLocked(id)...)
	}
	tx.st.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

// Committed reports whether Commit succeeded.
func (tx *MemTx) Committed() bool { return tx.committed }

type memHandle struct {
	tx   *MemTx
	view *MemView
}

func (h *memHandle) Field(name string) (any, bool) {
	if h.view.st.Unwritable[name] {
		return &memOpaque{}, true
	}
	if h.view.st.SetOnly[name] {
		return &memSetter{h: h, field: name}, true
	}
	return &memReplacer{h: h, field: name}, true
}

type memReplacer struct {
	h     *memHandle
	field string
}

func (w *memReplacer) Replace(value any) error {
	w.h.stage(w.field, "replace", value)
	return nil
}

type memSetter struct {
	h     *memHandle
	field string
}

func (w *memSetter) Set(value any) error {
	w.h.stage(w.field, "set", value)
	return nil
}

// memOpaque satisfies neither FieldReplacer nor FieldSetter.
type memOpaque struct{}

func (h *memHandle) stage(field, op string, value any) {
	tx, view := h.tx, h.view
	tx.Writes = append(tx.Writes, FieldWrite{Field: field, Op: op, Value: value})
	tx.writers = append(tx.writers, view.id)
	tx.ops = append(tx.ops, func() {
		view.st.records[view.id][field] = value
	})
}
