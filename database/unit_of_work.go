package database

import (
	"gorm.io/gorm"
)

// UnitOfWorkInterface hands out and settles the transaction that wraps one
// ingested event. The MQTT and HTTP ingest paths both begin a transaction
// here, drive the pipeline's persist step through it, and commit or roll
// back as a unit; the pipeline itself never owns transaction lifecycle.
type UnitOfWorkInterface interface {
	Begin() *gorm.DB
	Commit(tx *gorm.DB) error
	Rollback(tx *gorm.DB)
}

type unitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork wraps the root connection in a transaction factory.
func NewUnitOfWork(db *gorm.DB) UnitOfWorkInterface {
	return &unitOfWork{db: db}
}

func (uow *unitOfWork) Begin() *gorm.DB {
	return uow.db.Begin()
}

func (uow *unitOfWork) Commit(tx *gorm.DB) error {
	return tx.Commit().Error
}

// Rollback is a no-op on a transaction that already settled, so deferred
// panic-recovery rollbacks stay safe after a successful commit.
func (uow *unitOfWork) Rollback(tx *gorm.DB) {
	if tx.Error == nil {
		tx.Rollback()
	}
}
