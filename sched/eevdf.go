// Package sched implements the EEVDF-style scheduler: nice-to-weight
// conversion, vruntime advancement, lag tracking, and per-CPU ready
// queues ordered by effective virtual deadline.
package sched

import (
	"sort"
	"sync"

	"nexaos/kerrors"
	"nexaos/process"
)

// Policy is the scheduling class a process runs under.
type Policy int

const (
	// PolicyNormal is the default EEVDF-scheduled class.
	PolicyNormal Policy = iota
	// PolicyBatch is deprioritized relative to Normal.
	PolicyBatch
	// PolicyIdle is the lowest-priority class, run only when nothing
	// else is runnable.
	PolicyIdle
)

const (
	// NiceMin and NiceMax bound the nice value range.
	NiceMin = -20
	NiceMax = 19

	// NICE0Weight is the reference weight at nice 0.
	NICE0Weight = 1024

	// BaseSliceNanos is the base time slice, approximately 1ms.
	BaseSliceNanos = 1_000_000
	// MaxSliceNanos caps the time slice a single process can be granted.
	MaxSliceNanos = 4 * BaseSliceNanos
	// SchedGranularityNanos is the nominal minimum interval between
	// reschedules; Tick does not consult it.
	SchedGranularityNanos = 750_000
)

// NiceToWeight converts a nice value in [NiceMin, NiceMax] to its EEVDF
// weight, stepping by an approximate 1.25x ratio per unit, nice 0
// mapping to NICE0Weight.
var NiceToWeight = buildNiceToWeight()

func buildNiceToWeight() [NiceMax - NiceMin + 1]uint64 {
	var table [NiceMax - NiceMin + 1]uint64
	w := float64(NICE0Weight)
	// Build upward from nice 0 and downward, matching the canonical
	// CFS/EEVDF weight table shape (each step multiplies by ~1.25).
	weights := make([]float64, NiceMax-NiceMin+1)
	weights[-NiceMin] = w
	for n := 1; n <= NiceMax; n++ {
		weights[-NiceMin+n] = weights[-NiceMin+n-1] / 1.25
	}
	for n := 1; n <= -NiceMin; n++ {
		weights[-NiceMin-n] = weights[-NiceMin-n+1] * 1.25
	}
	for i, v := range weights {
		table[i] = uint64(v)
		if table[i] == 0 {
			table[i] = 1
		}
	}
	return table
}

// WeightForNice returns the EEVDF weight for a nice value, validating
// its range.
func WeightForNice(nice int) (uint64, error) {
	if nice < NiceMin || nice > NiceMax {
		return 0, kerrors.WrapWithSubsystem(kerrors.ErrInvalidNice, kerrors.KindInvalidArgument, "weight-for-nice", "sched")
	}
	return NiceToWeight[nice-NiceMin], nil
}

// Entry is one process's scheduling bookkeeping, held independently of
// the process.Process it describes (keyed by PID) so the scheduler and
// process packages never hold pointers into each other.
type Entry struct {
	PID      int
	Nice     int
	Weight   uint64
	Policy   Policy
	VRuntime uint64
	Lag      int64
	SliceNs  uint64
}

// NewEntry creates a ready-queue entry for pid at the given nice value
// and policy.
func NewEntry(pid int, nice int, policy Policy) (*Entry, error) {
	w, err := WeightForNice(nice)
	if err != nil {
		return nil, err
	}
	return &Entry{PID: pid, Nice: nice, Weight: w, Policy: policy, SliceNs: BaseSliceNanos}, nil
}

// effectiveDeadline is vruntime minus lag: entries with positive lag
// (they are owed CPU time) sort ahead of entries with none.
func (e *Entry) effectiveDeadline() int64 {
	return int64(e.VRuntime) - e.Lag
}

// Advance charges elapsed real time to the entry's vruntime, scaled by
// NICE0Weight / weight as the model requires.
func (e *Entry) Advance(elapsedNanos uint64) {
	e.VRuntime += elapsedNanos * NICE0Weight / e.Weight
}

// RunQueue is one CPU's EEVDF-ordered ready queue.
type RunQueue struct {
	mu      sync.Mutex
	cpuID   int
	entries map[int]*Entry // keyed by PID
	procs   *process.Table
}

// NewRunQueue creates an empty run queue for the given CPU, consulting
// procs for process affinity checks.
func NewRunQueue(cpuID int, procs *process.Table) *RunQueue {
	return &RunQueue{cpuID: cpuID, entries: make(map[int]*Entry), procs: procs}
}

// Enqueue adds or re-adds an entry to the run queue. Neither Enqueue nor
// Dequeue recalculates Lag: an entry keeps whatever Lag it already has.
func (rq *RunQueue) Enqueue(e *Entry) {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	rq.entries[e.PID] = e
}

// Dequeue removes and returns the entry for pid, if present.
func (rq *RunQueue) Dequeue(pid int) (*Entry, bool) {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	e, ok := rq.entries[pid]
	if ok {
		delete(rq.entries, pid)
	}
	return e, ok
}

// PickNext selects the runnable entry with the lowest effective virtual
// deadline whose owning process's affinity mask includes this CPU.
// PolicyIdle entries are only selected when no Normal/Batch entry is
// runnable.
func (rq *RunQueue) PickNext() (*Entry, error) {
	rq.mu.Lock()
	defer rq.mu.Unlock()

	var candidates []*Entry
	for _, e := range rq.entries {
		if rq.procs != nil {
			p, err := rq.procs.Get(e.PID)
			if err != nil || !p.HasAffinity(rq.cpuID) {
				continue
			}
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil, kerrors.WrapWithSubsystem(kerrors.ErrNoRunnableTask, kerrors.KindNotFound, "pick-next", "sched")
	}

	sort.Slice(candidates, func(i, j int) bool {
		pi, pj := candidates[i].Policy, candidates[j].Policy
		if pi != pj {
			return pi < pj // Normal < Batch < Idle
		}
		return candidates[i].effectiveDeadline() < candidates[j].effectiveDeadline()
	})
	return candidates[0], nil
}

// Len returns the number of entries currently queued.
func (rq *RunQueue) Len() int {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	return len(rq.entries)
}

// Tick charges elapsed time to the running entry and reports whether a
// reschedule should be requested: the slice is exhausted, or another
// runnable entry now has a lower effective deadline.
func (rq *RunQueue) Tick(running *Entry, elapsedNanos uint64) bool {
	running.Advance(elapsedNanos)
	if running.SliceNs <= elapsedNanos {
		return true
	}
	running.SliceNs -= elapsedNanos

	rq.mu.Lock()
	defer rq.mu.Unlock()
	for pid, e := range rq.entries {
		if pid == running.PID {
			continue
		}
		if e.Policy < running.Policy || (e.Policy == running.Policy && e.effectiveDeadline() < running.effectiveDeadline()) {
			return true
		}
	}
	return false
}
