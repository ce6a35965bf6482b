package repository

import "errors"

// ErrReportNotFound is returned when an archived report does not exist for
// the requesting owner.
var ErrReportNotFound = errors.New("exam report not found")
