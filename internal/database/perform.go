package database

import "context"

// PerformAndSave runs body in a new derived session inside a transaction.
// The transaction is committed when body returns nil; otherwise it is
// discarded and body's error is returned unchanged. Commit errors are
// returned as well.
func (m *ContextManager) PerformAndSave(ctx context.Context, body func(*Session) error) error {
	s := m.NewDerivedSession()
	defer s.Close()
	return s.Perform(ctx, func() error { return s.saveWith(body) })
}

// PerformAndSaveBlocking is PerformAndSave without a context.
func (m *ContextManager) PerformAndSaveBlocking(body func(*Session) error) error {
	s := m.NewDerivedSession()
	defer s.Close()
	return s.PerformAndWait(func() error { return s.saveWith(body) })
}

// PerformQuery runs body in a new derived session without a transaction.
func (m *ContextManager) PerformQuery(ctx context.Context, body func(*Session) error) error {
	s := m.NewDerivedSession()
	defer s.Close()
	return s.Perform(ctx, func() error { return body(s) })
}

// PerformQueryBlocking is PerformQuery without a context.
func (m *ContextManager) PerformQueryBlocking(body func(*Session) error) error {
	s := m.NewDerivedSession()
	defer s.Close()
	return s.PerformAndWait(func() error { return body(s) })
}

func (s *Session) saveWith(body func(*Session) error) error {
	if err := s.Begin(); err != nil {
		return err
	}
	if err := body(s); err != nil {
		s.discard()
		return err
	}
	return s.Save()
}

// PerformAndSave is the value-returning form of ContextManager.PerformAndSave.
func PerformAndSave[T any](ctx context.Context, m *ContextManager, body func(*Session) (T, error)) (T, error) {
	var result T
	err := m.PerformAndSave(ctx, func(s *Session) error {
		v, err := body(s)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func PerformAndSaveBlocking[T any](m *ContextManager, body func(*Session) (T, error)) (T, error) {
	var result T
	err := m.PerformAndSaveBlocking(func(s *Session) error {
		v, err := body(s)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// PerformQuery is the value-returning form of ContextManager.PerformQuery.
func PerformQuery[T any](ctx context.Context, m *ContextManager, body func(*Session) (T, error)) (T, error) {
	var result T
	err := m.PerformQuery(ctx, func(s *Session) error {
		v, err := body(s)
		result = v
		return err
	})
	return result, err
}

func PerformQueryBlocking[T any](m *ContextManager, body func(*Session) (T, error)) (T, error) {
	var result T
	err := m.PerformQueryBlocking(func(s *Session) error {
		v, err := body(s)
		result = v
		return err
	})
	return result, err
}
