package garden

// logRing keeps more history than clients ever see so the snapshot can
// persist a wider window than the broadcast one.
type logRing struct {
	entries []CareLogEntry
	cap     int
}

func newLogRing(capacity int) *logRing {
	if capacity < 1 {
		capacity = 1
	}
	return &logRing{cap: capacity}
}

func (r *logRing) Add(e CareLogEntry) {
	r.entries = append(r.entries, e)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
}

// Recent returns up to n entries, newest first.
func (r *logRing) Recent(n int) []CareLogEntry {
	if n <= 0 || n > len(r.entries) {
		n = len(r.entries)
	}
	out := make([]CareLogEntry, 0, n)
	for i := len(r.entries) - 1; i >= len(r.entries)-n; i-- {
		out = append(out, r.entries[i])
	}
	return out
}

// All returns the full retained window, oldest first.
func (r *logRing) All() []CareLogEntry {
	out := make([]CareLogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// addLog records one care-log line, fans it out to clients and forwards it
// to the durable sinks.
func (g *Garden) addLog(actor, message string) {
	e := CareLogEntry{Actor: actor, Message: message, TsMs: g.now().UnixMilli()}
	g.logs.Add(e)
	if g.careLogger != nil {
		if err := g.careLogger.WriteCare(e); err != nil {
			g.log.Printf("care log write: %v", err)
		}
	}
	if g.index != nil {
		g.index.RecordCare(e.Actor, e.Message, e.TsMs)
	}
	g.broadcastLogs()
}
