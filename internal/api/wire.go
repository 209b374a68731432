package api

import (
	"github.com/google/wire"
)

var Set = wire.NewSet(
	NewServer,
	wire.Struct(new(Handlers), "*"),
)
