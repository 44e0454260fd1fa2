// Package game implements the Farkle turn engine.
//
// The main type is Engine, which owns the authoritative state of one game:
// six dice, the players and their banked scores, and the state of the current
// turn. Its four actions (Roll, ToggleKeep, Bank and PassTurn) are synchronous
// and never return errors; an action that is illegal in the current state is a
// silent no-op. Callers that need to know why a move would be refused ask
// ValidateMove first.
//
// # Basic Usage
//
//	e := game.New(randutil.NewD6(seed), []game.Seat{
//	    {Name: "Alice", Controller: game.Human},
//	    {Name: "Greedy Bot", Controller: game.Greedy},
//	})
//	e.ToggleKeep(2)
//	e.Bank()
//
// # Snapshots
//
// Agents never see the engine. They receive a Snapshot, a value copy of the
// game that shares no memory with the engine, and answer with a Move. The
// orchestrator checks the move with Snapshot.ValidateMove or
// Engine.ValidateMove and applies it through Hold, Roll and Bank. Hold keeps
// exactly the listed dice; ToggleKeep is the interactive path with sibling
// auto-select.
//
// # Deterministic Testing
//
// The dice come from a Roller. Production code uses randutil.D6; tests inject
// a scripted roller so every face is known in advance.
//
// An Engine is not safe for concurrent use. One controller flow drives it.
package game
