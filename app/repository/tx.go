package repository

import "gorm.io/gorm"

// TxRunner executes a function against repositories bound to a single
// database transaction; an error from the function rolls the whole unit back.
type TxRunner interface {
	Transaction(fn func(repos *Repositories) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewTxRunner creates a transaction runner over the shared database handle.
func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) Transaction(fn func(repos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
