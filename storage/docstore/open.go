package docstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/copo/core"
)

// engines
const (
	EngineMemory   = "memory"
	EngineBolt     = "bolt"
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

var errUnknownEngine = errors.New("unknown database engine")

// Open returns the Store selected by `database.engine`.
func Open(ctx context.Context, conf *core.Config) (Store, error) {
	switch conf.Database.Engine {
	case EngineMemory, "":
		return NewMemoryStore(), nil
	case EngineBolt:
		return NewBoltStore(conf.Database.Path)
	case EngineSQLite:
		return OpenSQLite(ctx, conf.Database.Path)
	case EnginePostgres:
		return OpenPostgres(ctx, conf)
	default:
		return nil, errors.Wrap(errUnknownEngine, conf.Database.Engine)
	}
}
