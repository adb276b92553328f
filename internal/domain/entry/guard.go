package entry

// Stage identifies one step of the write pipeline.
type Stage string

const (
	StageAutoBalance Stage = "auto_balance"
	StageBalance     Stage = "balance"
	StageSequence    Stage = "sequence"
	StageHash        Stage = "hash"
)

// SyncGuard tracks which pipeline stages are currently running for one
// logical write. It replaces implicit recursion flags: a stage that is
// already on the stack is skipped instead of re-entered.
type SyncGuard struct {
	running map[Stage]bool
}

// NewSyncGuard creates an empty guard, scoped to a single logical write.
func NewSyncGuard() *SyncGuard {
	return &SyncGuard{running: make(map[Stage]bool)}
}

// Enter marks a stage as running. ok is false when the stage is already on
// the stack; callers must skip the stage in that case. The returned release
// must be called on every exit path.
func (g *SyncGuard) Enter(s Stage) (release func(), ok bool) {
	if g.running[s] {
		return func() {}, false
	}
	g.running[s] = true
	return func() { delete(g.running, s) }, true
}

// Active reports whether a stage is currently on the stack.
func (g *SyncGuard) Active(s Stage) bool {
	return g.running[s]
}
