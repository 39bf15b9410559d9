// Package handlers provides HTTP request handlers for the ETL API.
package handlers

import (
	etl "github.com/BEN-DataDev/orgs-sveltekit-etl"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client        etl.Client
	maxUploadSize int64
}

// New creates a new Handlers instance. A non-positive maxUploadSize uses
// the default limit.
func New(client etl.Client, maxUploadSize int64) *Handlers {
	if maxUploadSize <= 0 {
		maxUploadSize = constants.MaxUploadSize
	}
	return &Handlers{
		client:        client,
		maxUploadSize: maxUploadSize,
	}
}
