// Package physics provides the force sources and the container constraint
// applied to particles every sub-step.
//
//   - [Gravity]: constant downward acceleration (y points up)
//   - [Drag]: constant-magnitude resistance opposing the direction of motion
//   - [Box]: axis-aligned container that reflects particles with restitution
//
// Forces accumulate into [dynamo.Particle.Force] and are consumed by the
// integrator. The container runs after integration on every sub-step, so
// many small corrections accumulate instead of one large one per frame.
package physics
