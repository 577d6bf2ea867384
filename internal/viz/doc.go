// Package viz is the interactive terminal host for a swarm simulation.
//
// It drives [sim.Simulation.Tick] from the Bubble Tea tick loop with the
// real elapsed time between frames and renders one of two views:
//
//   - map: top-down shading of the deformable terrain with particles (o)
//     and the anchor (+), via [Heightmap]
//   - orbit: braille projection of the swarm around the anchor's idle shell
//
// # Key Bindings
//
//	Space - Pause/Resume
//	r / R - Respawn the selected particle / the whole swarm
//	n     - Select the next particle
//	f     - Flatten the terrain
//	v     - Toggle map/orbit view
//	h / l - Rotate the orbit camera
//	j / k - Zoom in/out
//	t     - Cycle color themes
//	?     - Show help overlay
//
// A position leaving the terrain halts the simulation. The host stops
// ticking, shows the error and reports it through [Model.Err] once the
// program exits.
package viz
