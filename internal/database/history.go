package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/onmir/booktracker/internal/entities"
)

const subscriberBuffer = 32

// ChangeNotification is published after every derived-session commit that
// changed at least one record.
type ChangeNotification struct {
	Seq             uint
	TransactionUUID string
	Author          string
	Changes         []entities.ChangeRef
	CommittedAt     time.Time
}

// Touches reports whether the notification includes a change to entity.
func (n ChangeNotification) Touches(entity string) bool {
	for _, c := range n.Changes {
		if c.Entity == entity {
			return true
		}
	}
	return false
}

// Subscribe returns a channel receiving every commit notification and a
// function that cancels the subscription. Slow subscribers miss
// notifications rather than block committers; ChangesSince replays them.
func (m *ContextManager) Subscribe() (<-chan ChangeNotification, func()) {
	ch := make(chan ChangeNotification, subscriberBuffer)

	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if sub, ok := m.subscribers[id]; ok {
			close(sub)
			delete(m.subscribers, id)
		}
	}
	return ch, cancel
}

func (m *ContextManager) publish(n ChangeNotification) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for id, ch := range m.subscribers {
		select {
		case ch <- n:
		default:
			log.Printf("[STORE] Subscriber %d is behind, dropped change %d", id, n.Seq)
		}
	}
}

// ChangesSince returns up to limit history entries with Seq greater than
// seq, oldest first. A limit of zero or less returns all of them.
func (m *ContextManager) ChangesSince(seq uint, limit int) ([]entities.ChangeTransaction, error) {
	var txns []entities.ChangeTransaction
	query := m.db.Where("seq > ?", seq).Order("seq ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("load change history: %w", err)
	}
	return txns, nil
}

// StoreState summarizes how far the store has progressed.
type StoreState struct {
	LastSeq      uint
	SchemaStages int64
}

// State returns the latest history seq and the number of applied migration
// stages.
func (m *ContextManager) State(ctx context.Context) (StoreState, error) {
	var state StoreState
	db := m.db.WithContext(ctx)

	var last entities.ChangeTransaction
	err := db.Order("seq DESC").Limit(1).Find(&last).Error
	if err != nil {
		return state, fmt.Errorf("load last change: %w", err)
	}
	state.LastSeq = last.Seq

	if err := db.Model(&entities.SchemaStage{}).Count(&state.SchemaStages).Error; err != nil {
		return state, fmt.Errorf("count schema stages: %w", err)
	}
	return state, nil
}
