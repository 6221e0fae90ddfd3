package stor

import (
	"github.com/nagyist/d2/pkg/config"
	"gorm.io/gorm"
)

const TxRetryKey = "D2_TX_RETRY"

func WithTxRetry(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error

	retryCount := config.GetIntKeyWithDefault(TxRetryKey, 3)
	if retryCount < 1 {
		retryCount = 1
	}

	for i := 0; i < retryCount; i++ {
		err = db.Transaction(fn)
		if err == nil {
			break
		}
	}

	return err
}
