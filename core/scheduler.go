package core

// Task is a periodic job run from the control loop
type Task struct {
	WakeTime uint32
	Handler  func(*Task) uint8
	Next     *Task
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps tasks sorted by wake time. It is only touched by the
// control loop, so it needs no locking.
type Scheduler struct {
	tasks *Task
}

// Schedule adds a task in wake-time order
func (s *Scheduler) Schedule(t *Task) {
	if s.tasks == nil || before(t.WakeTime, s.tasks.WakeTime) {
		t.Next = s.tasks
		s.tasks = t
		return
	}

	current := s.tasks
	for current.Next != nil && !before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Dispatch runs every task whose wake time is at or before now.
// A handler returning SF_RESCHEDULE must have advanced WakeTime itself.
func (s *Scheduler) Dispatch(now uint32) {
	for s.tasks != nil && !before(now, s.tasks.WakeTime) {
		task := s.tasks
		s.tasks = task.Next
		task.Next = nil

		if task.Handler(task) == SF_RESCHEDULE {
			s.Schedule(task)
		}
	}
}

// Pending returns the number of scheduled tasks
func (s *Scheduler) Pending() int {
	n := 0
	for t := s.tasks; t != nil; t = t.Next {
		n++
	}
	return n
}

// Every returns a handler that runs fn and reschedules itself period ticks later
func Every(period uint32, fn func()) func(*Task) uint8 {
	return func(t *Task) uint8 {
		fn()
		t.WakeTime += period
		return SF_RESCHEDULE
	}
}

// ScheduleEvery queues fn to run every period ticks, first at now+period.
// now must be the current clock; a stale value makes the first Dispatch
// run the task back to back until it catches up.
func (s *Scheduler) ScheduleEvery(now, period uint32, fn func()) *Task {
	t := &Task{WakeTime: now + period, Handler: Every(period, fn)}
	s.Schedule(t)
	return t
}

// before compares wrapping 32-bit timestamps
func before(a, b uint32) bool {
	return int32(a-b) < 0
}
