package readerregistry

import "errors"

var (
	ErrNilDatabaseConnection = errors.New("nil database connection supplied")
	ErrNilRedisClient        = errors.New("nil redis client supplied")
	ErrNilActivityChecker    = errors.New("nil activity checker supplied")
	ErrInvalidTableName      = errors.New("invalid readers table name supplied")
	ErrUnsupportedDialect    = errors.New("unsupported sql dialect supplied")
	ErrEmptyKeyPrefix        = errors.New("empty redis key prefix supplied")
	ErrNegativeQueryTimeout  = errors.New("negative query timeout supplied")
	ErrInvalidCacheSize      = errors.New("cache size must be positive")
	ErrEmptyReaderID         = errors.New("empty reader id supplied")
)
