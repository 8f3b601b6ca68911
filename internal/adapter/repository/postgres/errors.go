package postgres

import (
	"errors"

	"github.com/lib/pq"
	"github.com/simaogato/caixinha-backend/internal/domain"
)

const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
)

// storageError classifies a driver error. Unique violations become
// *domain.ConflictError; everything else is wrapped as *domain.StorageError.
func storageError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return &domain.ConflictError{Message: pqErr.Message}
	}
	return domain.NewStorageError(op, err)
}

// parentMissing reports an insert rejected because the referenced row is gone
func parentMissing(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
