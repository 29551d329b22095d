package transactions

// Repo defines the storage interface for transaction sessions. Only point
// read and upsert are needed; the engine behind it is interchangeable.
//
// The read-modify-write cycle around this interface carries no concurrency
// token: concurrent rounds for one transaction are last-writer-wins.
// Production reuse would want a version column on Upsert.
type Repo interface {
	// Get retrieves a transaction by ID. It returns
	// errors.ErrUnknownTransaction when no record exists.
	Get(id string) (*Transaction, error)

	// Upsert creates or replaces a transaction keyed by its ID.
	Upsert(txn *Transaction) error
}
