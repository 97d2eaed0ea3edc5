/*
GoMirror is a server-authoritative entity replication engine. A server
session owns the canonical state of all entities: it allocates stable entity
identifiers (optionally recycling them after a safety delay), runs the
spawn/despawn/ownership protocol, tracks which peers observe which entities,
and keeps each synchronized transform replicated to its observers through
delta-encoded, threshold-gated updates. Client sessions reconstruct entities
from spawn messages and smooth received state with interpolation buffers.

Package gomirror

gomirror is the top level API: it reads gomirror.ini and creates server and
client sessions. A minimal server looks like:

	import "github.com/gomirror/gomirror"

	func main() {
		registry := gomirror.NewRegistry()
		registry.Register("player", newPlayerEntity)
		server := gomirror.NewServer(registry)
		server.Run()
	}

Engine packages under engine/ can be used directly for finer control:
engine/entity hosts the lifecycle manager and the transform replicator,
engine/session the tick loops and transports, engine/interp the
interpolation strategies.
*/
package gomirror
