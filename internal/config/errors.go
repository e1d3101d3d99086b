package config

import "errors"

var (
	// ErrInvalidConcurrency is returned when concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
	// ErrInvalidTimeout is returned when request_timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidRetries is returned when max_retries is not greater than 0
	ErrInvalidRetries = errors.New("max_retries must be greater than 0")
	// ErrInvalidBackoff is returned when the backoff bounds are inconsistent
	ErrInvalidBackoff = errors.New("retry_base_delay must be positive and not exceed retry_max_delay")
	// ErrInvalidThresholds is returned when the coverage bands are inconsistent
	ErrInvalidThresholds = errors.New("coverage thresholds must satisfy 0 <= acceptable <= excellent <= 100")
	// ErrEmptyDataDir is returned when data_dir is empty
	ErrEmptyDataDir = errors.New("data_dir cannot be empty")
)
