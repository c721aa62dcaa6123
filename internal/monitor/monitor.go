// Package monitor polls the execution engine for live runs and
// synthesizes ordered node-lifecycle events for observers.
package monitor

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aturei/flowsynth/internal/events"
	"github.com/aturei/flowsynth/internal/metrics"
)

const (
	defaultInterval    = 500 * time.Millisecond
	defaultMaxDuration = 5 * time.Minute
)

// StatusAPI is the slice of the engine API the monitor needs.
type StatusAPI interface {
	GetExecution(ctx context.Context, executionID string) (*Execution, error)
}

// monitorState tracks one active poll loop. Each loop mutates only its
// own state, so no cross-loop locking exists.
type monitorState struct {
	workflowID string
	userID     string
	reported   map[string]struct{} // node names already reported completed
	cancel     context.CancelFunc
}

// Monitor owns a keyed registry of per-execution poll loops. Starting
// an already-monitored execution is a no-op; stopping is idempotent.
type Monitor struct {
	status      StatusAPI
	broadcaster events.Broadcaster
	interval    time.Duration
	maxDuration time.Duration

	mu     sync.Mutex
	active map[string]*monitorState
}

func New(status StatusAPI, broadcaster events.Broadcaster, interval, maxDuration time.Duration) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	if maxDuration <= 0 {
		maxDuration = defaultMaxDuration
	}
	return &Monitor{
		status:      status,
		broadcaster: broadcaster,
		interval:    interval,
		maxDuration: maxDuration,
		active:      make(map[string]*monitorState),
	}
}

// Start begins polling an execution. No-op when a loop for this
// executionID is already active; the check happens before any state
// mutation. The context deadline is the safety net against runs that
// never report completion.
func (m *Monitor) Start(executionID, workflowID, userID string) {
	m.mu.Lock()
	if _, ok := m.active[executionID]; ok {
		m.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.maxDuration)
	st := &monitorState{
		workflowID: workflowID,
		userID:     userID,
		reported:   make(map[string]struct{}),
		cancel:     cancel,
	}
	m.active[executionID] = st
	m.mu.Unlock()

	log.Printf("Monitoring execution %s (workflow %s)", executionID, workflowID)
	go m.loop(ctx, executionID, st)
}

// Stop cancels the poll loop for an execution and discards its state.
// Safe to call redundantly or for an unknown executionID, and safe
// against a concurrent self-stop from the loop itself.
func (m *Monitor) Stop(executionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.active[executionID]; ok {
		st.cancel()
		delete(m.active, executionID)
	}
}

// ActiveCount reports how many poll loops are currently registered.
func (m *Monitor) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// release is the loop's own cleanup. Unlike Stop it is identity-aware:
// it only deregisters when the registry still holds this loop's state,
// so a stop-then-restart within one poll interval cannot have the old
// loop tear down the freshly started monitor.
func (m *Monitor) release(executionID string, st *monitorState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.active[executionID]; ok && cur == st {
		cur.cancel()
		delete(m.active, executionID)
	}
}

func (m *Monitor) loop(ctx context.Context, executionID string, st *monitorState) {
	defer m.release(executionID, st)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Monitoring window closed for execution %s", executionID)
			return
		case <-ticker.C:
			stop, err := m.poll(ctx, executionID, st)
			if err != nil {
				// One failed cycle does not end monitoring.
				log.Printf("Poll failed for execution %s: %v", executionID, err)
			}
			if stop {
				return
			}
		}
	}
}

// poll fetches the execution once and diffs its run data against what
// was already reported. Returns stop=true when monitoring should end.
func (m *Monitor) poll(ctx context.Context, executionID string, st *monitorState) (bool, error) {
	metrics.MonitorPolls.Inc()

	exec, err := m.status.GetExecution(ctx, executionID)
	if err != nil {
		if errors.Is(err, ErrExecutionNotFound) || looksFinished(err) {
			// The run is presumed already finished and cleaned up.
			return true, nil
		}
		return false, err
	}

	if exec.Finished {
		log.Printf("Execution %s finished", executionID)
		return true, nil
	}

	for _, name := range orderedNodeNames(exec.RunData) {
		if _, done := st.reported[name]; done {
			continue
		}
		runs := exec.RunData[name]
		if len(runs) == 0 {
			continue
		}
		run := runs[len(runs)-1]

		m.emit(ctx, executionID, st, events.Event{Type: events.NodeStarted, Node: name})

		if run.Data != nil {
			m.emit(ctx, executionID, st, events.Event{Type: events.NodeData, Node: name, Data: run.Data})
		}

		if run.ExecutionTime != nil {
			status := "success"
			errMsg := run.ErrorMessage()
			if errMsg != "" {
				status = "error"
			}
			m.emit(ctx, executionID, st, events.Event{
				Type:   events.NodeCompleted,
				Node:   name,
				Status: status,
				Error:  errMsg,
			})
			st.reported[name] = struct{}{}
		} else {
			// Not marked reported, so it is re-evaluated next poll.
			m.emit(ctx, executionID, st, events.Event{Type: events.NodeRunning, Node: name})
		}
	}

	return false, nil
}

func (m *Monitor) emit(ctx context.Context, executionID string, st *monitorState, ev events.Event) {
	ev.UserID = st.userID
	ev.WorkflowID = st.workflowID
	ev.ExecutionID = executionID
	ev.Timestamp = time.Now()

	metrics.EventsEmitted.WithLabelValues(string(ev.Type)).Inc()

	if err := m.broadcaster.Publish(ctx, ev); err != nil {
		log.Printf("Failed to broadcast %s for node %q: %v", ev.Type, ev.Node, err)
	}
}

// orderedNodeNames sorts run-data keys by run start time so synthesized
// lifecycle events come out in execution order.
func orderedNodeNames(runData map[string][]NodeRun) []string {
	names := make([]string, 0, len(runData))
	for name := range runData {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := firstStart(runData[names[i]]), firstStart(runData[names[j]])
		if si == sj {
			return names[i] < names[j]
		}
		return si < sj
	})
	return names
}

func firstStart(runs []NodeRun) int64 {
	if len(runs) == 0 {
		return 0
	}
	return runs[0].StartTime
}

func looksFinished(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "finished")
}
