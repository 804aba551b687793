package docstore

import (
	"context"
	"encoding/json"
	"sync"
)

// entry is a stored document together with the version that last wrote it.
type entry struct {
	data    []byte
	version uint64
}

// MemoryStore implements Store in process memory. Documents are kept JSON
// encoded so callers never share memory with the store.
//
// Transactions use optimistic concurrency: every read records the version it
// observed, writes are buffered, and commit fails with ErrTxConflict if any
// observed document changed in the meantime.
type MemoryStore struct {
	mu          sync.RWMutex
	docs        map[string]entry
	seq         uint64
	maxAttempts int
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMaxAttempts sets how many times a conflicting transaction is attempted.
func WithMaxAttempts(n int) MemoryStoreOption {
	return func(m *MemoryStore) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	m := &MemoryStore{
		docs:        make(map[string]entry),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string, dst any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	m.mu.RLock()
	e, ok := m.docs[memoryKey(collection, id)]
	m.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(e.data, dst)
}

func (m *MemoryStore) Create(ctx context.Context, collection, id string, doc any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(collection, id)
	if _, ok := m.docs[key]; ok {
		return ErrAlreadyExists
	}
	m.put(key, data)
	return nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, doc any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.put(memoryKey(collection, id), data)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, doc any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(collection, id)
	if _, ok := m.docs[key]; !ok {
		return ErrNotFound
	}
	m.put(key, data)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.docs, memoryKey(collection, id))
	m.mu.Unlock()
	return nil
}

// RunTransaction runs fn against a snapshot-validated view of the store.
func (m *MemoryStore) RunTransaction(ctx context.Context, fn TxFunc) error {
	return Retry(ctx, m.maxAttempts, func(ctx context.Context) error {
		tx := &memoryTx{
			store:  m,
			reads:  make(map[string]uint64),
			writes: make(map[string]*[]byte),
		}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return m.commit(tx)
	})
}

// Len returns the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// put must be called with the write lock held.
func (m *MemoryStore) put(key string, data []byte) {
	m.seq++
	m.docs[key] = entry{data: data, version: m.seq}
}

func (m *MemoryStore) commit(tx *memoryTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, seen := range tx.reads {
		if m.docs[key].version != seen {
			return ErrTxConflict
		}
	}

	for key, data := range tx.writes {
		if data == nil {
			delete(m.docs, key)
			continue
		}
		m.put(key, *data)
	}
	return nil
}

// memoryTx buffers writes until commit. A nil entry in writes marks a delete.
type memoryTx struct {
	store  *MemoryStore
	reads  map[string]uint64
	writes map[string]*[]byte
}

func (tx *memoryTx) Get(ctx context.Context, collection, id string, dst any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	key := memoryKey(collection, id)
	if data, ok := tx.writes[key]; ok {
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(*data, dst)
	}

	tx.store.mu.RLock()
	e, ok := tx.store.docs[key]
	tx.store.mu.RUnlock()

	// Absent documents are tracked as version 0 so a concurrent insert is a conflict too.
	if _, tracked := tx.reads[key]; !tracked {
		tx.reads[key] = e.version
	} else if tx.reads[key] != e.version {
		return ErrTxConflict
	}

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(e.data, dst)
}

func (tx *memoryTx) Set(ctx context.Context, collection, id string, doc any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tx.writes[memoryKey(collection, id)] = &data
	return nil
}

func (tx *memoryTx) Delete(ctx context.Context, collection, id string) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}
	tx.writes[memoryKey(collection, id)] = nil
	return nil
}

func memoryKey(collection, id string) string {
	return collection + "\x00" + id
}
