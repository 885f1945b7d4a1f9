package domain

import "errors"

// ErrConfigurationMissing is returned when no active operational-hours configuration exists.
var ErrConfigurationMissing = errors.New("no active operational hours configuration")
