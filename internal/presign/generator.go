package presign

import (
	"fmt"
	"time"
)

// ProtocolTimeout bounds how long a single generation protocol may stay in
// flight before Poke fails it.
const ProtocolTimeout = 2 * time.Minute

// Generator is an ongoing presignature generation protocol together with
// the two triples it consumed.
type Generator struct {
	protocol Protocol
	triple0  TripleID
	triple1  TripleID
	mine     bool
	started  time.Time
	timeout  time.Duration
}

func newGenerator(protocol Protocol, triple0, triple1 TripleID, mine bool, timeout time.Duration) *Generator {
	return &Generator{
		protocol: protocol,
		triple0:  triple0,
		triple1:  triple1,
		mine:     mine,
		started:  time.Now(),
		timeout:  timeout,
	}
}

// Poke advances the protocol, failing it once the generation has been in
// flight longer than the timeout.
func (g *Generator) Poke() (Action, error) {
	if time.Since(g.started) > g.timeout {
		return Action{}, fmt.Errorf("presignature protocol timed out after %s (triples %d, %d)", g.timeout, g.triple0, g.triple1)
	}
	return g.protocol.Poke()
}
