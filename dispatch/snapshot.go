package dispatch

// Snapshot is a point-in-time view of the dispatcher for status reporting.
type Snapshot struct {
	State     string `json:"state"`
	Program   string `json:"program,omitempty"`
	Session   string `json:"session,omitempty"`
	LastError string `json:"last_error,omitempty"`
	Ticks     uint64 `json:"ticks"`
	Runs      uint64 `json:"runs"`
	Count     int    `json:"leds"`
}

// Snapshot reads only published values and is safe from any goroutine. A
// task that exited but was not reaped yet reports as idle.
func (d *Dispatcher) Snapshot() Snapshot {
	s := Snapshot{
		State: d.State().String(),
		Runs:  d.runs.Load(),
		Count: d.cfg.Count,
	}
	if id := d.session.Load(); id != nil {
		s.Session = *id
	}
	if t := d.current.Load(); t != nil {
		s.Program = t.Digest()
		s.Ticks = t.Ticks()
		select {
		case <-t.Done():
			s.State = Idle.String()
			if err := t.Err(); err != nil {
				s.LastError = err.Error()
			}
			return s
		default:
		}
	}
	if msg := d.lastErr.Load(); msg != nil {
		s.LastError = *msg
	}
	return s
}
