package contracts

import (
	"context"
	"medilab-service/internal/app/models"
)

type SelectionRepository interface {
	FindPendingByPatientID(ctx context.Context, patientID string) ([]models.Selection, error)
	// MarkBooked transitions the given selections pending -> booked. The
	// filter includes the pending status so an already-booked selection is
	// never re-transitioned.
	MarkBooked(ctx context.Context, selectionIDs []string) error
}

type PendingBookingRepository interface {
	FindByTransactionRef(ctx context.Context, transactionRef string) (*models.PendingBooking, error)
	CreatePendingBooking(ctx context.Context, booking *models.PendingBooking) (*models.PendingBooking, error)
	DeleteByTransactionRef(ctx context.Context, transactionRef string) error
}
