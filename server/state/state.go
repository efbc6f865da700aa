package state

import (
	"go.uber.org/zap"

	"github.com/ourlineintime/lineintime/config"
	"github.com/ourlineintime/lineintime/export"
	"github.com/ourlineintime/lineintime/media"
	"github.com/ourlineintime/lineintime/storage/mediadb"
	"github.com/ourlineintime/lineintime/storage/memorydb"
	"github.com/ourlineintime/lineintime/storage/object"
)

type State struct {
	Cfg      *config.Config
	Log      *zap.SugaredLogger
	Memories *memorydb.Store
	Media    *mediadb.Store
	Objects  object.Store
	Pipeline *media.Pipeline
	Exporter *export.Exporter
}
