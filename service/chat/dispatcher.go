package chat

// Dispatcher pushes events to resolved recipients over their registered
// connections. Offline recipients are skipped silently; they catch up via
// the sidebar/history fetch. Everything here is fire-and-forget: a failed
// or dropped push never affects persistence or other recipients.
//
// The fanout lane must run with a single worker: frames enqueued for one
// conversation then reach every recipient in enqueue order, which is the
// order their pointer-maintenance step completed.
type Dispatcher struct {
	mgr *ConnManager
	fan *Fanout
}

func NewDispatcher(mgr *ConnManager, fan *Fanout) *Dispatcher {
	return &Dispatcher{mgr: mgr, fan: fan}
}

// PushToUser delivers one event to one user, if connected.
func (d *Dispatcher) PushToUser(userID, event string, data interface{}) {
	d.PushToUsers([]string{userID}, event, data)
}

// PushToUsers encodes the event once and delivers it to every recipient
// with a live connection.
func (d *Dispatcher) PushToUsers(userIDs []string, event string, data interface{}) {
	if len(userIDs) == 0 {
		return
	}
	conns := make([]*Client, 0, len(userIDs))
	for _, id := range userIDs {
		if c, ok := d.mgr.Lookup(id); ok {
			conns = append(conns, c)
		}
	}
	if len(conns) == 0 {
		return
	}
	payload, ok := EncodeFrame(event, data)
	if !ok {
		return
	}
	d.fan.Broadcast(conns, payload)
}
