package presign

import (
	"errors"
	"fmt"
)

// ID identifies a specific ongoing presignature generation protocol.
// Without it there would be no way to route incoming generation messages
// to the right protocol instance.
type ID uint64

// TripleID identifies one Beaver triple held by the triple source.
type TripleID uint64

// Participant identifies one signer node, by its index in the deployment's
// signer list.
type Participant uint32

// Output is the completed presignature material produced by the protocol
// engine: the group nonce commitment and this node's shares of k and sigma.
type Output struct {
	BigR  []byte
	K     []byte
	Sigma []byte
}

// Presignature is a completed, unspent presignature.
type Presignature struct {
	ID     ID
	Output Output
}

// Message carries one round of generation data to a participant.
type Message struct {
	ID      ID
	Triple0 TripleID
	Triple1 TripleID
	Epoch   uint64
	From    Participant
	Data    []byte
}

// ActionType enumerates what a protocol wants next.
type ActionType int

const (
	// ActionWait means the protocol is blocked until a message arrives.
	ActionWait ActionType = iota
	// ActionSendMany broadcasts Data to every participant.
	ActionSendMany
	// ActionSendPrivate sends Data to the single participant in To.
	ActionSendPrivate
	// ActionReturn completes the protocol with Output.
	ActionReturn
)

// Action is one step of protocol progress reported by Poke.
type Action struct {
	Type   ActionType
	To     Participant
	Data   []byte
	Output Output
}

// Protocol is one in-flight presignature generation protocol. Poke advances
// it as far as it can without new input.
type Protocol interface {
	Poke() (Action, error)
}

// Triple is an unspent Beaver triple taken from the triple source.
type Triple struct {
	ID     TripleID
	Share  []byte
	Public []byte
}

// TripleSource hands out generated triples. TakeTwo removes both triples at
// once; a missing id surfaces as TripleMissingError with neither consumed.
type TripleSource interface {
	TakeTwo(id0, id1 TripleID) (Triple, Triple, error)
}

// ProtocolParams is everything the concrete protocol engine needs to start
// generating one presignature.
type ProtocolParams struct {
	Participants []Participant
	Me           Participant
	Threshold    int
	Triple0      Triple
	Triple1      Triple
	PublicKey    []byte
	SecretShare  []byte
}

// ProtocolFunc starts the concrete generation protocol for one presignature.
type ProtocolFunc func(ProtocolParams) (Protocol, error)

// ErrAlreadyGenerated is returned when a generation message references a
// presignature that already completed.
var ErrAlreadyGenerated = errors.New("presignature already generated")

// TripleMissingError reports a triple id unknown to the triple source.
type TripleMissingError struct {
	ID TripleID
}

func (e *TripleMissingError) Error() string {
	return fmt.Sprintf("triple %d is missing", e.ID)
}
