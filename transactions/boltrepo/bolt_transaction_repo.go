// Package boltrepo provides a transactions.Repo persisted in a single-file
// bbolt database, so sessions survive emulator restarts between test runs.
package boltrepo

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	acserr "github.com/finsim/acs-emulator/internal/errors"
	"github.com/finsim/acs-emulator/transactions"
)

const connectTimeout = 5 * time.Second

var bucketName = []byte("transactions")

var _ transactions.Repo = (*BoltTransactionRepo)(nil)

type BoltTransactionRepo struct {
	db *bolt.DB
}

// New opens (or creates) the database file and ensures the transactions
// bucket exists.
func New(dbPath string) (*BoltTransactionRepo, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: connectTimeout})
	if err != nil {
		return nil, errors.Wrapf(acserr.ErrStorage, "failed to open database %q: %v", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(acserr.ErrStorage, "failed to create bucket: %v", err)
	}

	return &BoltTransactionRepo{db: db}, nil
}

func (tr *BoltTransactionRepo) Get(id string) (*transactions.Transaction, error) {
	var txn *transactions.Transaction
	err := tr.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketName).Get([]byte(id))
		if data == nil {
			return acserr.ErrUnknownTransaction
		}
		txn = &transactions.Transaction{}
		return json.Unmarshal(data, txn)
	})
	if err != nil {
		if acserr.Is(err, acserr.ErrUnknownTransaction) {
			return nil, err
		}
		return nil, errors.Wrapf(acserr.ErrStorage, "failed to read transaction %q: %v", id, err)
	}
	return txn, nil
}

func (tr *BoltTransactionRepo) Upsert(txn *transactions.Transaction) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return errors.Wrapf(acserr.ErrStorage, "failed to marshal transaction %q: %v", txn.ID, err)
	}
	err = tr.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(txn.ID), data)
	})
	if err != nil {
		return errors.Wrapf(acserr.ErrStorage, "failed to write transaction %q: %v", txn.ID, err)
	}
	return nil
}

func (tr *BoltTransactionRepo) Close() error {
	return tr.db.Close()
}
