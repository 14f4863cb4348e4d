package services

import (
	"encore/config"
	"encore/internal/database"
)

type Service struct {
	Transaction *TransactionService
	Recurrence  *RecurrenceService
	Catalog     *CatalogService
	Scheduler   *SchedulerService
}

func New(db database.DB, config config.Config) (Service, error) {
	return Service{
		Transaction: NewTransactionService(db),
		Recurrence:  NewRecurrenceService(),
		Catalog:     NewCatalogService(config, db.Cache.General),
		Scheduler:   NewSchedulerService(),
	}, nil
}
