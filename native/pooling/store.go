package pooling

import (
	"errors"
	"fmt"

	"lukechampine.com/blake3"

	"poolcore/storage"
)

// Key prefixes keep the four record kinds in disjoint key spaces even when
// the same identity appears in more than one role.
const (
	poolManagerPrefix = "pooling/manager/"
	poolPrefix        = "pooling/pool/"
	ticketPrefix      = "pooling/ticket/"
	miningPrefix      = "pooling/mining/"
)

func recordKey(prefix string, id PublicKey) []byte {
	h := blake3.Sum256(append([]byte(prefix), id[:]...))
	return h[:]
}

// Ledger persists pooling records in a key-value store. All reads return
// decoded copies; callers mutate the copy and commit it back with a Put so a
// failed operation never leaves a half-written record behind.
type Ledger struct {
	db storage.Database
}

// NewLedger wraps db as a pooling record ledger.
func NewLedger(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) load(prefix string, id PublicKey) ([]byte, error) {
	data, err := l.db.Get(recordKey(prefix, id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s%s", ErrNotInitialized, prefix, id)
	}
	return data, err
}

// init writes a fresh record, refusing to clobber an initialized one. A
// pre-allocated but never initialized record (version byte zero) may be
// claimed.
func (l *Ledger) init(prefix string, id PublicKey, data []byte) error {
	key := recordKey(prefix, id)
	existing, err := l.db.Get(key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if len(existing) > 0 && existing[0] != 0 {
		return fmt.Errorf("%w: %s%s", ErrAlreadyInitialized, prefix, id)
	}
	return l.db.Put(key, data)
}

// GetPoolManager loads and decodes the manager record keyed by id.
func (l *Ledger) GetPoolManager(id PublicKey) (*PoolManager, error) {
	data, err := l.load(poolManagerPrefix, id)
	if err != nil {
		return nil, err
	}
	m, err := DecodePoolManager(data)
	if err != nil {
		return nil, err
	}
	if m.Version == 0 {
		return nil, fmt.Errorf("%w: %s%s", ErrNotInitialized, poolManagerPrefix, id)
	}
	return m, nil
}

// PutPoolManager commits m under id.
func (l *Ledger) PutPoolManager(id PublicKey, m *PoolManager) error {
	data, err := EncodePoolManager(m)
	if err != nil {
		return err
	}
	return l.db.Put(recordKey(poolManagerPrefix, id), data)
}

// InitPoolManager creates the manager record under id.
func (l *Ledger) InitPoolManager(id PublicKey, m *PoolManager) error {
	data, err := EncodePoolManager(m)
	if err != nil {
		return err
	}
	return l.init(poolManagerPrefix, id, data)
}

// GetPool loads and decodes the pool record keyed by id.
func (l *Ledger) GetPool(id PublicKey) (*Pool, error) {
	data, err := l.load(poolPrefix, id)
	if err != nil {
		return nil, err
	}
	p, err := DecodePool(data)
	if err != nil {
		return nil, err
	}
	if p.Version == 0 {
		return nil, fmt.Errorf("%w: %s%s", ErrNotInitialized, poolPrefix, id)
	}
	return p, nil
}

// PutPool commits p under id.
func (l *Ledger) PutPool(id PublicKey, p *Pool) error {
	data, err := EncodePool(p)
	if err != nil {
		return err
	}
	return l.db.Put(recordKey(poolPrefix, id), data)
}

// InitPool creates the pool record under id.
func (l *Ledger) InitPool(id PublicKey, p *Pool) error {
	data, err := EncodePool(p)
	if err != nil {
		return err
	}
	return l.init(poolPrefix, id, data)
}

// GetTicket loads and decodes the ticket record keyed by id.
func (l *Ledger) GetTicket(id PublicKey) (*Ticket, error) {
	data, err := l.load(ticketPrefix, id)
	if err != nil {
		return nil, err
	}
	t, err := DecodeTicket(data)
	if err != nil {
		return nil, err
	}
	if t.Version == 0 {
		return nil, fmt.Errorf("%w: %s%s", ErrNotInitialized, ticketPrefix, id)
	}
	return t, nil
}

// PutTicket commits t under id.
func (l *Ledger) PutTicket(id PublicKey, t *Ticket) error {
	data, err := EncodeTicket(t)
	if err != nil {
		return err
	}
	return l.db.Put(recordKey(ticketPrefix, id), data)
}

// InitTicket creates the ticket record under id.
func (l *Ledger) InitTicket(id PublicKey, t *Ticket) error {
	data, err := EncodeTicket(t)
	if err != nil {
		return err
	}
	return l.init(ticketPrefix, id, data)
}

// GetMining loads and decodes the mining record keyed by id.
func (l *Ledger) GetMining(id PublicKey) (*Mining, error) {
	data, err := l.load(miningPrefix, id)
	if err != nil {
		return nil, err
	}
	m, err := DecodeMining(data)
	if err != nil {
		return nil, err
	}
	if m.Version == 0 {
		return nil, fmt.Errorf("%w: %s%s", ErrNotInitialized, miningPrefix, id)
	}
	return m, nil
}

// PutMining commits m under id.
func (l *Ledger) PutMining(id PublicKey, m *Mining) error {
	data, err := EncodeMining(m)
	if err != nil {
		return err
	}
	return l.db.Put(recordKey(miningPrefix, id), data)
}

// InitMining creates the mining record under id.
func (l *Ledger) InitMining(id PublicKey, m *Mining) error {
	data, err := EncodeMining(m)
	if err != nil {
		return err
	}
	return l.init(miningPrefix, id, data)
}
