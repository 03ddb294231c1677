package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTransaction starts a transaction for action on host ("" for local).
func NewTransaction(action, host string) Transaction {
	return Transaction{
		ID:        uuid.NewString(),
		Action:    action,
		Host:      host,
		Timestamp: time.Now(),
		Status:    "success",
	}
}

// Record appends a step to tx and marks tx failed when the step failed.
func (tx *Transaction) Record(step StepRecord) {
	tx.Steps = append(tx.Steps, step)
	if step.Status == StatusFailed {
		tx.Status = "failed"
	}
}

// AddTransaction appends a new transaction to history and saves state.
func (m *Manager) AddTransaction(tx Transaction) error {
	m.mu.Lock()
	m.Current.History = append(m.Current.History, tx)
	m.mu.Unlock()

	return m.Save()
}

// GetTransactions returns a copy of history.
func (m *Manager) GetTransactions() []Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := make([]Transaction, len(m.Current.History))
	copy(history, m.Current.History)
	return history
}

// GetTransaction finds a transaction by ID or by a unique ID prefix.
func (m *Manager) GetTransaction(id string) (Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found []Transaction
	for _, tx := range m.Current.History {
		if tx.ID == id {
			return tx, nil
		}
		if id != "" && strings.HasPrefix(tx.ID, id) {
			found = append(found, tx)
		}
	}
	switch len(found) {
	case 0:
		return Transaction{}, fmt.Errorf("transaction not found: %s", id)
	case 1:
		return found[0], nil
	default:
		return Transaction{}, fmt.Errorf("transaction id %s is ambiguous (%d matches)", id, len(found))
	}
}
