package world

import "github.com/weft-sim/weft/internal/registry"

// Entity is a live key in the world's entity set. Component entries
// for an entity share its key across every data set.
type Entity int

// Op selects a structural operation.
type Op uint8

const (
	OpSpawn Op = iota
	OpDespawn
	OpPut
	OpDelete
	OpReschedule
	OpStop
)

// Command is one queued structural operation. Structural mutation
// never happens mid-tick; the loop drains the queue before each tick
// executes, so systems observe stable membership.
type Command struct {
	Op     Op
	Entity Entity
	Handle registry.TypeHandle
	Value  any

	// Reply receives the spawned entity key. Closed without a send
	// when the spawn fails. Delivery is non-blocking; buffer it.
	Reply chan Entity
}

// SpawnCmd allocates an entity at the next drain, delivering the key
// on reply.
func SpawnCmd(reply chan Entity) Command {
	return Command{Op: OpSpawn, Reply: reply}
}

// DespawnCmd frees e and drops it from every data set.
func DespawnCmd(e Entity) Command {
	return Command{Op: OpDespawn, Entity: e}
}

// PutCmd stores v for e under h. The value is stamped with the tick
// it becomes visible in.
func PutCmd(e Entity, h registry.TypeHandle, v any) Command {
	return Command{Op: OpPut, Entity: e, Handle: h, Value: v}
}

// DeleteCmd removes e's entry under h.
func DeleteCmd(e Entity, h registry.TypeHandle) Command {
	return Command{Op: OpDelete, Entity: e, Handle: h}
}

// RescheduleCmd marks the schedule stale, forcing a resolve before
// the next tick.
func RescheduleCmd() Command {
	return Command{Op: OpReschedule}
}

// StopCmd ends the run loop after the current drain.
func StopCmd() Command {
	return Command{Op: OpStop}
}
