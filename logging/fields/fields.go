package fields

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldChanged        = "changed"
	FieldCount          = "count"
	FieldFeeRecipient   = "fee_recipient"
	FieldPath           = "path"
	FieldPubKey         = "pubkey"
	FieldRunID          = "run_id"
	FieldSignerURL      = "signer_url"
	FieldTook           = "took"
	FieldValidatorIndex = "validator_index"
)

func Count(val int) zap.Field {
	return zap.Int(FieldCount, val)
}

func Took(duration time.Duration) zap.Field {
	return zap.Duration(FieldTook, duration)
}

func Path(val string) zap.Field {
	return zap.String(FieldPath, val)
}

// PubKey logs a validator public key. There is intentionally no helper for private keys.
func PubKey(val string) zap.Field {
	return zap.String(FieldPubKey, val)
}

func FeeRecipient(val string) zap.Field {
	return zap.String(FieldFeeRecipient, val)
}

func ValidatorIndex(val uint64) zap.Field {
	return zap.Uint64(FieldValidatorIndex, val)
}

func RunID(val string) zap.Field {
	return zap.String(FieldRunID, val)
}

func SignerURL(val string) zap.Field {
	return zap.String(FieldSignerURL, val)
}

func Changed(val bool) zap.Field {
	return zap.Bool(FieldChanged, val)
}
