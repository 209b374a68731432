package infrastructure

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TimeOperation executes an operation and logs its execution time
func TimeOperation(log logrus.FieldLogger, name string, operation func() error) error {
	start := time.Now()
	err := operation()
	log.WithFields(logrus.Fields{
		"operation": name,
		"elapsed":   time.Since(start).String(),
	}).Debug("operation finished")
	return err
}

// WithTransaction runs operation inside a transaction, committing on success and
// rolling back on error or panic.
func WithTransaction(ctx context.Context, db *sqlx.DB, operation func(*sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-throw panic after Rollback
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logrus.WithError(rbErr).Error("rollback transaction")
			}
		} else {
			err = errors.Wrap(tx.Commit(), "commit transaction")
		}
	}()

	err = operation(tx)
	return err
}

// GenerateNumericCode returns a uniformly random decimal code of the given length.
func GenerateNumericCode(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", errors.Wrap(err, "read random digit")
		}
		b[i] = byte('0' + n.Int64())
	}
	return string(b), nil
}
