// Package analysis finds periodic behaviour in recorded frame metrics.
//
// A settling pile rings: kinetic energy and penetration depth oscillate
// as the box restitution and the collision response trade momentum. The
// spectrum of a metric series exposes that ringing:
//
//	s, err := analysis.Analyze(times, values)
//	fmt.Printf("dominant %.2f Hz\n", s.Dominant)
package analysis
