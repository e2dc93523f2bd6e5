// Package sim is the tick loop of the shape arena.
//
// Every tick runs a fixed pipeline against the whole world:
//
//   - [ImpulseInjector]: on clock fire, replaces the velocity of random impulsive entities
//   - [FrictionIntegrator]: v *= friction^dt, snapping slow entities to rest
//   - [BoundaryReflector]: turns velocity back toward the arena at the walls
//   - [PositionIntegrator]: pos += v*dt
//
// Before the first tick, [Simulator.Spawn] creates the roster and
// [Simulator.AttachColliders] derives convex hull colliders from mesh data.
//
// # Example
//
//	s, err := sim.New(sim.DefaultOptions(), log)
//	if err != nil {
//	    return err
//	}
//	s.Spawn()
//	s.AttachColliders(mesh.NewSource())
//	result, err := s.Run(ctx, sim.RunConfig{Dt: 1.0 / 60, Duration: 10})
//
// # Determinism
//
// All randomness comes from one [RandomSource] seeded with 32 bytes. Identical
// seeds and tick sequences produce identical trajectories, which
// [Result.Fingerprint] summarises. A Simulator is not safe for concurrent use;
// run independent seeds through [Ensemble].
package sim
