package app

import (
	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/modules/arith"
	"github.com/specialistvlad/algogrid/modules/stats"
)

// coreModules is the definitive list of all unit modules that are compiled
// into the algogrid binary.
var coreModules = []catalog.Module{
	&arith.Module{},
	&stats.Module{},
}
