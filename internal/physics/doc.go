// Package physics holds the per-particle force laws and the collision
// resolver that act on a swarm.
//
// All vectors are [r3.Vec]. The field's reactive slope lives in package
// field; the orchestration of one tick lives in package sim.
//
//   - [Anchor]: central force pulling points onto an idle-distance shell
//   - [Particle]: kinetic state with a semi-implicit Euler step
//   - [Resolver]: pairwise overlap detection and bounded iterative correction
package physics
