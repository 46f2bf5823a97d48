package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/onmir/booktracker/internal/entities"
)

// Session is a unit of work against the record store. Every session owns one
// executor goroutine; work submitted through Perform runs there in
// submission order. Records resolved or inserted inside an open transaction
// are tracked, and Save writes back only the columns that changed, so two
// sessions editing different fields of one record both keep their edits and
// the later commit wins per field.
//
// Session state is confined to the executor: call the record helpers only
// from inside Perform or PerformAndWait.
type Session struct {
	name     string
	manager  *ContextManager
	readOnly bool

	work      chan func()
	done      chan struct{}
	closeOnce sync.Once

	tx          *gorm.DB
	tracked     map[string]*trackedRecord
	order       []string
	changes     []entities.ChangeRef
	changeIndex map[string]int
}

type trackedRecord struct {
	value    any
	schema   *schema.Schema
	entity   string
	id       uint
	snapshot map[string]any
}

func newSession(m *ContextManager, name string, readOnly bool) *Session {
	s := &Session{
		name:     name,
		manager:  m,
		readOnly: readOnly,
		work:     make(chan func()),
		done:     make(chan struct{}),
	}
	s.reset()
	go s.run()
	return s
}

func (s *Session) run() {
	for {
		select {
		case job := <-s.work:
			job()
		case <-s.done:
			return
		}
	}
}

// Name identifies the session in logs and change history.
func (s *Session) Name() string {
	return s.name
}

// Perform runs fn on the session's executor and waits for it. ctx only bounds
// the wait for the executor; once fn has started it runs to completion.
func (s *Session) Perform(ctx context.Context, fn func() error) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	// select picks randomly among ready cases; a cancelled caller must never
	// reach an idle executor.
	if err := ctx.Err(); err != nil {
		return err
	}

	result := make(chan error, 1)
	job := func() { result <- s.invoke(fn) }

	select {
	case s.work <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
	return <-result
}

// PerformAndWait runs fn on the session's executor, blocking until it returns.
func (s *Session) PerformAndWait(fn func() error) error {
	return s.Perform(context.Background(), fn)
}

func (s *Session) invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.discard()
			err = fmt.Errorf("session %s: panic: %v", s.name, r)
		}
	}()
	return fn()
}

// Close discards any open transaction and stops the executor. It must not be
// called from inside Perform.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.PerformAndWait(func() error {
			s.discard()
			return nil
		})
		close(s.done)
	})
}

// DB returns the handle for typed queries: the open transaction if there is
// one, otherwise a fresh handle on the store.
func (s *Session) DB() *gorm.DB {
	if s.tx != nil {
		return s.tx
	}
	return s.manager.db.Session(&gorm.Session{})
}

// InTransaction reports whether Begin has been called without Save or Rollback.
func (s *Session) InTransaction() bool {
	return s.tx != nil
}

// Begin opens the session's transaction.
func (s *Session) Begin() error {
	if s.readOnly {
		return ErrReadOnlySession
	}
	if s.tx != nil {
		return ErrTransactionOpen
	}
	tx := s.manager.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin: %w", tx.Error)
	}
	s.tx = tx
	return nil
}

// Insert creates value inside the open transaction and starts tracking it.
func (s *Session) Insert(value any) error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	if err := s.tx.Create(value).Error; err != nil {
		return err
	}
	rec, err := s.register(value)
	if err != nil {
		return err
	}
	s.record(rec.entity, rec.id, entities.ChangeOpInsert)
	return nil
}

// Update writes the named columns of value right away. With no columns every
// writable column is written. Records obtained through Resolve do not need
// it: Save picks up their changed fields.
func (s *Session) Update(value any, columns ...string) error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	sch, err := s.schemaOf(value)
	if err != nil {
		return err
	}
	id, err := primaryKey(sch, value)
	if err != nil {
		return err
	}

	q := s.tx.Model(value)
	if len(columns) == 0 {
		q = q.Select("*").Omit("created_at")
	} else {
		q = q.Select(columns)
	}
	res := q.Updates(value)
	if res.Error != nil {
		return fmt.Errorf("update %s %d: %w", sch.Table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: sch.Table, ID: id}
	}

	if rec, ok := s.tracked[trackKey(sch.Table, id)]; ok {
		rec.snapshot = snapshot(sch, rec.value)
	}
	s.record(sch.Table, id, entities.ChangeOpUpdate)
	return nil
}

// Delete removes value inside the open transaction.
func (s *Session) Delete(value any) error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	sch, err := s.schemaOf(value)
	if err != nil {
		return err
	}
	id, err := primaryKey(sch, value)
	if err != nil {
		return err
	}
	if err := s.tx.Delete(value).Error; err != nil {
		return err
	}
	key := trackKey(sch.Table, id)
	delete(s.tracked, key)
	s.record(sch.Table, id, entities.ChangeOpDelete)
	return nil
}

// Save writes back changed fields of tracked records, appends the history
// entry and commits. Any failure discards the whole unit of work.
func (s *Session) Save() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	if err := s.flush(); err != nil {
		s.discard()
		return err
	}

	var txn *entities.ChangeTransaction
	if len(s.changes) > 0 {
		txn = &entities.ChangeTransaction{
			UUID:    uuid.NewString(),
			Author:  s.name,
			Changes: s.changes,
		}
		if err := s.tx.Create(txn).Error; err != nil {
			s.discard()
			return fmt.Errorf("write history: %w", err)
		}
	}

	if err := s.tx.Commit().Error; err != nil {
		s.discard()
		return fmt.Errorf("commit: %w", err)
	}
	s.reset()

	if txn != nil {
		s.manager.publish(ChangeNotification{
			Seq:             txn.Seq,
			TransactionUUID: txn.UUID,
			Author:          txn.Author,
			Changes:         txn.Changes,
			CommittedAt:     txn.CreatedAt,
		})
	}
	return nil
}

// Rollback discards the open transaction and everything tracked in it.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	s.discard()
	return nil
}

func (s *Session) discard() {
	if s.tx != nil {
		s.tx.Rollback()
	}
	s.reset()
}

func (s *Session) reset() {
	s.tx = nil
	s.tracked = make(map[string]*trackedRecord)
	s.order = nil
	s.changes = nil
	s.changeIndex = make(map[string]int)
}

// Resolve loads the record of type T with the given id. Inside a transaction
// the same pointer is returned for repeated lookups and later field changes
// are written back by Save.
func Resolve[T any](s *Session, id uint) (*T, error) {
	var v T
	sch, err := s.schemaOf(&v)
	if err != nil {
		return nil, err
	}

	if rec, ok := s.tracked[trackKey(sch.Table, id)]; ok {
		if existing, ok := rec.value.(*T); ok {
			return existing, nil
		}
	}

	if id == 0 {
		return nil, &NotFoundError{Entity: sch.Table, ID: id}
	}
	err = s.DB().First(&v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: sch.Table, ID: id}
	}
	if err != nil {
		return nil, err
	}

	if s.tx != nil {
		if _, err := s.register(&v); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

func (s *Session) ResolveBook(id uint) (*entities.Book, error) {
	return Resolve[entities.Book](s, id)
}

func (s *Session) ResolveQuote(id uint) (*entities.Quote, error) {
	return Resolve[entities.Quote](s, id)
}

func (s *Session) ResolveReadingLog(id uint) (*entities.ReadingLog, error) {
	return Resolve[entities.ReadingLog](s, id)
}

func (s *Session) register(value any) (*trackedRecord, error) {
	sch, err := s.schemaOf(value)
	if err != nil {
		return nil, err
	}
	id, err := primaryKey(sch, value)
	if err != nil {
		return nil, err
	}

	key := trackKey(sch.Table, id)
	rec := &trackedRecord{
		value:    value,
		schema:   sch,
		entity:   sch.Table,
		id:       id,
		snapshot: snapshot(sch, value),
	}
	if _, exists := s.tracked[key]; !exists {
		s.order = append(s.order, key)
	}
	s.tracked[key] = rec
	return rec, nil
}

func (s *Session) flush() error {
	for _, key := range s.order {
		rec, ok := s.tracked[key]
		if !ok {
			continue
		}
		changed := rec.changedColumns()
		if len(changed) == 0 {
			continue
		}
		if err := s.tx.Model(rec.value).Select(changed).Updates(rec.value).Error; err != nil {
			return fmt.Errorf("update %s %d: %w", rec.entity, rec.id, err)
		}
		rec.snapshot = snapshot(rec.schema, rec.value)
		s.record(rec.entity, rec.id, entities.ChangeOpUpdate)
	}
	return nil
}

// record folds repeated changes to one record into a single history ref:
// an insert stays an insert, a delete always wins.
func (s *Session) record(entity string, id uint, op entities.ChangeOp) {
	key := trackKey(entity, id)
	if i, ok := s.changeIndex[key]; ok {
		if op == entities.ChangeOpDelete {
			s.changes[i].Op = op
		}
		return
	}
	s.changeIndex[key] = len(s.changes)
	s.changes = append(s.changes, entities.ChangeRef{Entity: entity, ID: id, Op: op})
}

func (s *Session) schemaOf(value any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: s.manager.db}
	if err := stmt.Parse(value); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return stmt.Schema, nil
}

func (r *trackedRecord) changedColumns() []string {
	current := snapshot(r.schema, r.value)
	var changed []string
	for _, name := range r.schema.DBNames {
		before, tracked := r.snapshot[name]
		if !tracked {
			continue
		}
		if !reflect.DeepEqual(before, current[name]) {
			changed = append(changed, name)
		}
	}
	return changed
}

func trackKey(entity string, id uint) string {
	return fmt.Sprintf("%s/%d", entity, id)
}

func primaryKey(sch *schema.Schema, value any) (uint, error) {
	field := sch.PrioritizedPrimaryField
	if field == nil {
		return 0, fmt.Errorf("%s has no primary key", sch.Table)
	}
	v, _ := field.ValueOf(context.Background(), reflect.Indirect(reflect.ValueOf(value)))
	id, ok := v.(uint)
	if !ok {
		return 0, fmt.Errorf("%s primary key is %T, want uint", sch.Table, v)
	}
	return id, nil
}

// snapshot captures the writable column values of value. Pointers are
// dereferenced so in-place edits through them are seen as changes.
func snapshot(sch *schema.Schema, value any) map[string]any {
	rv := reflect.Indirect(reflect.ValueOf(value))
	out := make(map[string]any, len(sch.DBNames))
	for _, name := range sch.DBNames {
		field := sch.FieldsByDBName[name]
		if field == nil || field.PrimaryKey || !field.Updatable ||
			field.AutoCreateTime > 0 || field.AutoUpdateTime > 0 {
			continue
		}
		v, _ := field.ValueOf(context.Background(), rv)
		out[name] = deref(v)
	}
	return out
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return v
	}
	if rv.IsNil() {
		return nil
	}
	return rv.Elem().Interface()
}
