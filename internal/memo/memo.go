// Package memo is a small incremental computation engine.
//
// Queries are pure functions of string inputs (set by the host with SetInput)
// and of other queries. Their results, errors included, are cached until one of
// the inputs they transitively read changes.
//
// Re-entering a query key which is still being computed (a cycle) does not
// recurse: the query's Recover function is called instead, and its result
// becomes the final result of the re-entered key.
package memo

import (
	"fmt"
	"github.com/cottand/fql/internal/log"
	"github.com/cottand/fql/util"
	"github.com/hashicorp/go-set/v3"
	"log/slog"
	"strings"
	"sync"
)

// Key identifies one computation: a query applied to an argument
type Key struct {
	Query string
	Arg   string
}

func (k Key) String() string {
	return k.Query + "(" + k.Arg + ")"
}

// Query is a named, memoized computation over string arguments
type Query[T any] struct {
	Name    string
	Compute func(c *Ctx, arg string) (T, error)
	// Recover synthesizes the result of arg when it is re-entered while still
	// being computed. cycle lists the in-flight keys in the order they were
	// entered, starting with the re-entered one.
	// When nil, re-entering panics with a CycleError.
	Recover func(arg string, cycle []Key) (T, error)
}

// CycleError is raised (as a panic) by queries without a Recover function
type CycleError struct {
	Cycle []Key
}

func (e CycleError) Error() string {
	keys := make([]string, 0, len(e.Cycle))
	for _, k := range e.Cycle {
		keys = append(keys, k.String())
	}
	return "unrecoverable query cycle: " + strings.Join(keys, " -> ")
}

type entry struct {
	value any
	err   error
	// inputs read directly while computing this entry
	inputs *set.Set[string]
	// other entries read while computing this one
	deps *set.Set[Key]
}

// frame is one in-flight computation
type frame struct {
	key    Key
	inputs *set.Set[string]
	deps   *set.Set[Key]
}

type Engine struct {
	// mu serializes top-level requests and input changes
	mu     sync.Mutex
	inputs map[string]string
	memos  map[Key]*entry
	active util.Stack[*frame]
	// recovered holds the results synthesized for keys re-entered during the current request
	recovered map[Key]*entry
	logger    *slog.Logger
	stats     Stats
}

// Stats counts what the engine did, for tests and debugging
type Stats struct {
	Computed   int
	Hits       int
	Recoveries int
}

func NewEngine() *Engine {
	return &Engine{
		inputs:    make(map[string]string),
		memos:     make(map[Key]*entry),
		recovered: make(map[Key]*entry),
		logger:    log.DefaultLogger.With("section", "memo"),
	}
}

// Ctx is handed to running queries so they can read inputs and other queries
type Ctx struct {
	engine *Engine
}

// SetInput sets the value of an input. When the value changes, every cached
// result which read it, directly or through other queries, is dropped.
// It reports whether the value changed.
func (e *Engine) SetInput(name, value string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.inputs[name]; ok && old == value {
		return false
	}
	e.inputs[name] = value
	e.invalidate(name)
	return true
}

// invalidate drops the entries that depend on the input name
func (e *Engine) invalidate(name string) {
	stale := set.New[Key](0)
	for key, ent := range e.memos {
		if ent.inputs.Contains(name) {
			stale.Insert(key)
		}
	}
	for changed := true; changed; {
		changed = false
		for key, ent := range e.memos {
			if stale.Contains(key) {
				continue
			}
			for dep := range ent.deps.Items() {
				if stale.Contains(dep) {
					stale.Insert(key)
					changed = true
					break
				}
			}
		}
	}
	for key := range stale.Items() {
		delete(e.memos, key)
	}
	if !stale.Empty() {
		e.logger.Debug("invalidated", "input", name, "entries", stale.Size())
	}
}

// Stats returns a snapshot of the engine's counters
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Get runs q for arg as a top-level request. It must not be called from
// inside a running query: use Fetch there.
func Get[T any](e *Engine, q *Query[T], arg string) (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { clear(e.recovered) }()
	return Fetch(&Ctx{engine: e}, q, arg)
}

// Input returns the value of the input name, and records that the running query read it
func (c *Ctx) Input(name string) (string, bool) {
	if top, ok := c.engine.active.Peek(); ok {
		top.inputs.Insert(name)
	}
	v, ok := c.engine.inputs[name]
	return v, ok
}

// Fetch returns the result of q for arg, computing it if it is not cached
func Fetch[T any](c *Ctx, q *Query[T], arg string) (T, error) {
	e := c.engine
	key := Key{Query: q.Name, Arg: arg}
	if top, ok := e.active.Peek(); ok {
		top.deps.Insert(key)
	}

	if ent, ok := e.memos[key]; ok {
		e.stats.Hits++
		return result[T](ent)
	}
	if ent, ok := e.recovered[key]; ok {
		return result[T](ent)
	}
	if idx := e.activeIndex(key); idx >= 0 {
		return recoverCycle(e, q, key, idx)
	}

	e.active.Push(&frame{key: key, inputs: set.New[string](0), deps: set.New[Key](0)})
	popped := false
	defer func() {
		if !popped {
			e.active.Pop()
		}
	}()
	value, err := q.Compute(c, arg)
	fr, _ := e.active.Pop()
	popped = true
	fr.deps.Remove(key)

	ent := &entry{value: value, err: err, inputs: fr.inputs, deps: fr.deps}
	if rec, ok := e.recovered[key]; ok {
		ent.value, ent.err = rec.value, rec.err
		delete(e.recovered, key)
	}
	e.memos[key] = ent
	e.stats.Computed++
	e.logger.Debug("computed", "key", key.String(), "err", ent.err)
	return result[T](ent)
}

func (e *Engine) activeIndex(key Key) int {
	for i, fr := range e.active.Items() {
		if fr.key == key {
			return i
		}
	}
	return -1
}

func recoverCycle[T any](e *Engine, q *Query[T], key Key, idx int) (T, error) {
	frames := e.active.Items()[idx:]
	cycle := make([]Key, 0, len(frames))
	for _, fr := range frames {
		cycle = append(cycle, fr.key)
	}
	if q.Recover == nil {
		panic(CycleError{Cycle: cycle})
	}
	value, err := q.Recover(key.Arg, cycle)
	e.stats.Recoveries++
	e.recovered[key] = &entry{value: value, err: err}
	e.logger.Debug("recovered from cycle", "key", key.String(), "cycle", fmt.Sprint(cycle))
	return value, err
}

func result[T any](ent *entry) (T, error) {
	var zero T
	if ent.value == nil {
		return zero, ent.err
	}
	value, ok := ent.value.(T)
	if !ok {
		panic(fmt.Sprintf("memo: cached %T where %T was expected", ent.value, zero))
	}
	return value, ent.err
}
