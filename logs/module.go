package logs

import (
	"github.com/reusee/dscope"
	"github.com/reusee/lazyphy/configs"
)

type Module struct {
	dscope.Module
	Configs configs.Module
}
