package presign

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Manager tracks completed unspent presignatures and the generation
// protocols still in flight, and remembers which presignatures this node
// initiated so they can be spent locally in FIFO order.
type Manager struct {
	mutex         sync.Mutex
	presignatures map[ID]*Presignature
	generators    map[ID]*Generator
	mine          []ID

	participants []Participant
	me           Participant
	threshold    int
	epoch        uint64

	newProtocol ProtocolFunc
	timeout     time.Duration
	log         *slog.Logger
}

// Outgoing pairs a generation message with the participant it is addressed to.
type Outgoing struct {
	To  Participant
	Msg Message
}

type Option func(*Manager)

// WithTimeout overrides the per-protocol generation timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithLogger overrides the manager's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

func NewManager(participants []Participant, me Participant, threshold int, epoch uint64, newProtocol ProtocolFunc, opts ...Option) *Manager {
	m := &Manager{
		presignatures: make(map[ID]*Presignature),
		generators:    make(map[ID]*Generator),
		participants:  participants,
		me:            me,
		threshold:     threshold,
		epoch:         epoch,
		newProtocol:   newProtocol,
		timeout:       ProtocolTimeout,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Len returns the number of unspent presignatures available in the manager.
func (m *Manager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.presignatures)
}

// MineLen returns the number of unspent presignatures assigned to this node.
func (m *Manager) MineLen() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.mine)
}

// PotentialLen returns the number of unspent presignatures the manager will
// hold once every ongoing generation completes.
func (m *Manager) PotentialLen() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.presignatures) + len(m.generators)
}

// Generate starts a new generation protocol initiated by this node, spending
// the two triples. The returned id routes incoming messages for it.
func (m *Manager) Generate(triple0, triple1 Triple, publicKey, secretShare []byte) (ID, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	id := ID(rand.Uint64())
	gen, err := m.generate(triple0, triple1, publicKey, secretShare, true)
	if err != nil {
		return 0, err
	}

	m.log.Info("starting presignature generation", slog.Uint64("id", uint64(id)))
	m.generators[id] = gen
	return id, nil
}

// GetOrGenerate routes an incoming generation message. The presignature is
// either already generated (ErrAlreadyGenerated), being generated (its
// protocol is returned), or unknown, in which case the referenced triples
// are taken from the source and a protocol joining the generation starts.
func (m *Manager) GetOrGenerate(id ID, triple0, triple1 TripleID, triples TripleSource, publicKey, secretShare []byte) (Protocol, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, done := m.presignatures[id]; done {
		return nil, ErrAlreadyGenerated
	}
	if gen, ok := m.generators[id]; ok {
		return gen.protocol, nil
	}

	m.log.Info("joining presignature generation", slog.Uint64("id", uint64(id)))
	t0, t1, err := triples.TakeTwo(triple0, triple1)
	if err != nil {
		m.log.Warn("cannot join presignature generation",
			slog.Uint64("triple0", uint64(triple0)),
			slog.Uint64("triple1", uint64(triple1)),
			slog.Any("err", err))
		return nil, err
	}

	gen, err := m.generate(t0, t1, publicKey, secretShare, false)
	if err != nil {
		return nil, err
	}
	m.generators[id] = gen
	return gen.protocol, nil
}

func (m *Manager) generate(triple0, triple1 Triple, publicKey, secretShare []byte, mine bool) (*Generator, error) {
	protocol, err := m.newProtocol(ProtocolParams{
		Participants: m.participants,
		Me:           m.me,
		Threshold:    m.threshold,
		Triple0:      triple0,
		Triple1:      triple1,
		PublicKey:    publicKey,
		SecretShare:  secretShare,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing presignature protocol: %w", err)
	}
	return newGenerator(protocol, triple0.ID, triple1.ID, mine, m.timeout), nil
}

// Take removes and returns the presignature with the given id.
func (m *Manager) Take(id ID) (*Presignature, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, ok := m.presignatures[id]
	if ok {
		delete(m.presignatures, id)
	}
	return p, ok
}

// TakeMine removes and returns the oldest presignature this node initiated.
func (m *Manager) TakeMine() (*Presignature, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.mine) == 0 {
		return nil, false
	}
	id := m.mine[0]
	m.mine = m.mine[1:]

	p := m.presignatures[id]
	delete(m.presignatures, id)
	return p, true
}

// Poke advances every ongoing generation as far as it can go and returns
// the messages to send to the respective participants. An empty result
// means no protocol can progress until a new message arrives. A failed
// generator is dropped; the first failure is returned alongside whatever
// messages the remaining generators produced.
func (m *Manager) Poke() ([]Outgoing, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var messages []Outgoing
	var firstErr error

	for id, gen := range m.generators {
	poking:
		for {
			action, err := gen.Poke()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				delete(m.generators, id)
				break poking
			}

			switch action.Type {
			case ActionWait:
				m.log.Debug("presignature generation waiting", slog.Uint64("id", uint64(id)))
				break poking
			case ActionSendMany:
				for _, p := range m.participants {
					messages = append(messages, Outgoing{To: p, Msg: m.message(id, gen, action.Data)})
				}
			case ActionSendPrivate:
				messages = append(messages, Outgoing{To: action.To, Msg: m.message(id, gen, action.Data)})
			case ActionReturn:
				m.log.Info("completed presignature generation", slog.Uint64("id", uint64(id)))
				m.presignatures[id] = &Presignature{ID: id, Output: action.Output}
				if gen.mine {
					m.mine = append(m.mine, id)
				}
				delete(m.generators, id)
				break poking
			}
		}
	}

	return messages, firstErr
}

func (m *Manager) message(id ID, gen *Generator, data []byte) Message {
	return Message{
		ID:      id,
		Triple0: gen.triple0,
		Triple1: gen.triple1,
		Epoch:   m.epoch,
		From:    m.me,
		Data:    data,
	}
}
