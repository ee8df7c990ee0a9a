// Package history keeps a local audit trail of checked moves.
//
// Every SetChecked invocation is appended to a SQLite database: the
// requested target, the readback for committed moves, the verdict, and
// the largest deviation from the pretuned point. The trail answers the
// question that always comes up after an emergency stop: what exactly
// was asked of the device, and when.
package history
