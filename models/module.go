package models

import (
	"github.com/reusee/dscope"
	"github.com/reusee/lazyphy/logs"
	"github.com/reusee/lazyphy/regheap"
)

type Module struct {
	dscope.Module
	Regheap regheap.Module
	Logs    logs.Module
}
