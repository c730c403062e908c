package commands

import (
	"context"

	"github.com/de-tools/ledger-atlas/pkg/services/catalog"
	"github.com/de-tools/ledger-atlas/pkg/services/ingest"
)

// Runtime bundles the services a command needs, built from a config
// path at execution time.
type Runtime struct {
	Catalog catalog.Service
	Loader  *ingest.Loader
	Close   func() error
}

type RuntimeFactory func(ctx context.Context, configPath string) (*Runtime, error)
