// Package eval turns individual expression-tree symbols into host nodes.
//
// # Evaluators
//
// Every token kind has an [Evaluator] with a two-phase contract.
// [Evaluator.BeforeOperand1] runs after the primary operand has been built
// and before the secondary operands are; it may redirect evaluation into a
// different graph, which is how group literals build their body inside a
// fresh subgraph. [Evaluator.Evaluate] runs once all operands are nodes and
// returns the node representing the symbol.
//
// The set of evaluators is closed: [For] is the only constructor and the
// interface carries an unexported method.
//
// # Param Bus
//
// A [Bus] carries the symbol being evaluated and its already evaluated
// operands as [Operand] values, each pairing a symbol with the node it
// produced and its effective port selector.
//
// # Port Resolution
//
// [ResolvePort] picks a port among a node's enabled, visible ports. An
// explicit selector is tried as a position, then as a port name, then falls
// back to the first port. A malformed selector never fails resolution.
//
// # Variables
//
// The [VarTable] maps names to previously built nodes. A reference to a
// bound name reuses its node instead of building a new one, and bumps the
// binding's use count.
package eval
