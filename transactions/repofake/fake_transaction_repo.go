package repofake

import (
	"sync"

	acserr "github.com/finsim/acs-emulator/internal/errors"
	"github.com/finsim/acs-emulator/transactions"
)

var _ transactions.Repo = (*FakeTransactionRepo)(nil)

type FakeTransactionRepo struct {
	txns map[string]*transactions.Transaction
	lock sync.RWMutex
}

func NewFakeTransactionRepo() *FakeTransactionRepo {
	return &FakeTransactionRepo{
		txns: make(map[string]*transactions.Transaction),
	}
}

func (tr *FakeTransactionRepo) Get(id string) (*transactions.Transaction, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	txn, ok := tr.txns[id]
	if !ok {
		return nil, acserr.ErrUnknownTransaction
	}
	return txn.Clone(), nil
}

func (tr *FakeTransactionRepo) Upsert(txn *transactions.Transaction) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.txns[txn.ID] = txn.Clone()
	return nil
}
