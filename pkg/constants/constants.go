package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	AppKey    ContextKey = "app"
	PoolKey   ContextKey = "pool"
	TxKey     ContextKey = "tx"
	LoggerKey ContextKey = "logger"
	ParamsKey ContextKey = "params"
	UserKey   ContextKey = "user"
)

// Validate is the shared validator instance used by request DTOs.
var Validate = validator.New(validator.WithRequiredStructEnabled())
