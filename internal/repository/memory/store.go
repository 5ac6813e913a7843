// Package memory is an in-process document store with optimistic
// transactions. Every document carries a version; a transaction records the
// version of each document it reads, buffers its writes, and at commit
// verifies that nothing it read has changed before applying them.
package memory

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
	"investment-ledger/internal/metrics"
)

const (
	collAccounts    = "accounts"
	collDeposits    = "deposits"
	collWithdrawals = "withdrawals"
	collInvestments = "investments"
	collSettings    = "settings"
)

var (
	// ErrReadAfterWrite is returned when a transaction reads a document after
	// it has already issued a write.
	ErrReadAfterWrite = stderrors.New("memory: read after write in transaction")

	errConflict  = stderrors.New("memory: transaction conflict")
	errDuplicate = stderrors.New("memory: document exists")
	errMissing   = stderrors.New("memory: document missing")
)

type docKey struct {
	collection string
	id         string
}

type entry struct {
	value   any
	version uint64
}

type database struct {
	mu         sync.RWMutex
	docs       map[docKey]entry
	seq        uint64
	maxRetries int
	logger     *zap.Logger
}

// Store implements domain.Store. The zero transaction view auto-commits
// every write; views handed to WithTransaction callbacks buffer them.
type Store struct {
	db *database
	tx *txn
}

var _ domain.Store = (*Store)(nil)

func NewStore(maxRetries int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Store{
		db: &database{
			docs:       make(map[docKey]entry),
			maxRetries: maxRetries,
			logger:     logger,
		},
	}
}

func (s *Store) Accounts() domain.AccountRepository       { return accountRepo{s} }
func (s *Store) Deposits() domain.DepositRepository       { return depositRepo{s} }
func (s *Store) Withdrawals() domain.WithdrawalRepository { return withdrawalRepo{s} }
func (s *Store) Investments() domain.InvestmentRepository { return investmentRepo{s} }
func (s *Store) Settings() domain.SettingsRepository      { return settingsRepo{s} }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

// WithTransaction runs fn against a transactional view. A callback invoked
// on a view that is already transactional joins the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	for attempt := 0; attempt <= s.db.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		t := newTxn(s.db)
		if err := fn(&Store{db: s.db, tx: t}); err != nil {
			return err
		}

		err := t.commit()
		if err == nil {
			return nil
		}
		if !stderrors.Is(err, errConflict) {
			return err
		}

		metrics.TransactionRetriesTotal.WithLabelValues("memory").Inc()
		s.db.logger.Debug("Transaction conflict, retrying", zap.Int("attempt", attempt+1))
	}

	s.db.logger.Warn("Transaction retries exhausted", zap.Int("max_retries", s.db.maxRetries))
	return errors.ErrTransientConflict
}

func (s *Store) get(ctx context.Context, key docKey) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.tx != nil {
		return s.tx.read(key)
	}
	v, ok := s.db.load(key)
	return v, ok, nil
}

func (s *Store) create(ctx context.Context, key docKey, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return s.tx.create(key, value)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.docs[key]; ok {
		return errDuplicate
	}
	s.db.put(key, value)
	return nil
}

// modify applies fn to the current value of key and stores the result.
func (s *Store) modify(ctx context.Context, key docKey, fn func(cur any) (any, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return s.tx.modify(key, fn)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.docs[key]
	if !ok {
		return errMissing
	}
	next, err := fn(cur.value)
	if err != nil {
		return err
	}
	s.db.put(key, next)
	return nil
}

// upsert stores value whether or not the document exists.
func (s *Store) upsert(ctx context.Context, key docKey, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return s.tx.upsert(key, value)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.put(key, value)
	return nil
}

// list returns committed documents of a collection. Lists never join the
// read set of a transaction.
func (s *Store) list(ctx context.Context, collection string) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	keys := make([]docKey, 0)
	for k := range s.db.docs {
		if k.collection == collection {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].id < keys[j].id })

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.db.docs[k].value)
	}
	return out, nil
}

func (db *database) load(key docKey) (any, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e, ok := db.docs[key]
	return e.value, ok
}

// put must be called with mu held.
func (db *database) put(key docKey, value any) {
	db.seq++
	db.docs[key] = entry{value: value, version: db.seq}
}

type txn struct {
	db     *database
	reads  map[docKey]uint64
	snap   map[docKey]any
	writes map[docKey]any
	order  []docKey
}

func newTxn(db *database) *txn {
	return &txn{
		db:     db,
		reads:  make(map[docKey]uint64),
		snap:   make(map[docKey]any),
		writes: make(map[docKey]any),
	}
}

func (t *txn) read(key docKey) (any, bool, error) {
	if len(t.order) > 0 {
		return nil, false, ErrReadAfterWrite
	}
	return t.observe(key)
}

// observe returns the transaction's view of key, capturing its version on
// first access so commit can detect concurrent changes.
func (t *txn) observe(key docKey) (any, bool, error) {
	if v, ok := t.writes[key]; ok {
		return v, true, nil
	}
	if _, seen := t.reads[key]; seen {
		v, ok := t.snap[key]
		return v, ok, nil
	}

	t.db.mu.RLock()
	e, ok := t.db.docs[key]
	t.db.mu.RUnlock()

	t.reads[key] = e.version
	if ok {
		t.snap[key] = e.value
	}
	return e.value, ok, nil
}

func (t *txn) stage(key docKey, value any) {
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = value
}

func (t *txn) create(key docKey, value any) error {
	if _, exists, _ := t.observe(key); exists {
		return errDuplicate
	}
	t.stage(key, value)
	return nil
}

func (t *txn) modify(key docKey, fn func(cur any) (any, error)) error {
	cur, exists, _ := t.observe(key)
	if !exists {
		return errMissing
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	t.stage(key, next)
	return nil
}

func (t *txn) upsert(key docKey, value any) error {
	t.observe(key)
	t.stage(key, value)
	return nil
}

func (t *txn) commit() error {
	if len(t.order) == 0 {
		return nil
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	for key, version := range t.reads {
		if t.db.docs[key].version != version {
			return errConflict
		}
	}
	for _, key := range t.order {
		t.db.put(key, t.writes[key])
	}
	return nil
}
