// Package stream broadcasts solver frames to websocket clients.
//
// Messages are little-endian binary. The server sends OpScreen once per
// connection, then OpFrame messages carrying x, y and radius per particle as
// float32 triples. Clients may send OpSpawn to request a new particle; the
// requests are queued for the simulation loop to apply between frames.
package stream
