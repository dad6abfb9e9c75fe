// Package boot initializes a fixed set of singleton controllers exactly once
// at process startup. It defines the Controller contract, discovers candidate
// instances from an explicit factory manifest plus optional host sources,
// initializes them strictly one at a time in discovery order, publishes the
// survivors through a type-keyed Registry, and resolves a one-time completion
// Signal that late consumers can still observe.
//
// Consumers interact with two surfaces only: Get on the Registry and the
// completion Signal. Discovery and the Sequencer are driven once by the
// process's composition root (see the host package) and never called from
// consumer code.
package boot
