// Package world wires storage, dependency declarations, and the
// conflict-graph schedule into a run loop.
//
// A [World] owns one [store.Store], the registered systems, and the
// batch schedule derived from their declarations. [World.Register]
// records a system with its [query.Query]. [World.Resolve] folds any
// pending write promotions into the declarations, rebuilds the
// conflict graph, colors it, and partitions the systems into batches.
// [World.Run] loops: drain the command queue, resolve when the
// schedule is stale, execute the batches in order with batch members
// running concurrently, advance the tick.
//
// Systems never touch the world directly. Each run hands the system a
// [Tick] scoped to its declaration: views of undeclared handles fail,
// declared reads yield value copies, and mutable rows require a
// declared write. A mutable request against a handle declared
// read-only records a write promotion; the system defers for that
// tick and its declaration widens at the next resolve.
//
// Structural changes run through [Command] values on a buffered
// queue, drained once per tick before any system executes. Set
// membership is therefore stable for the whole tick, which is what
// makes exclusion probes and driving-set selection safe without
// locks.
//
// # Thread Safety
//
// Register, Resolve, Spawn, Put, and the other structural methods
// must run from the loop goroutine, before Run or between Steps.
// [World.Enqueue] is the one concurrent entry point; it is safe from
// any goroutine, including system functions mid-tick. Within a batch,
// members run concurrently; the schedule guarantees no declared
// overlap on any written set.
package world
