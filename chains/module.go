package chains

import (
	"github.com/reusee/dscope"
	"github.com/reusee/lazyphy/configs"
	"github.com/reusee/lazyphy/logs"
	"github.com/reusee/lazyphy/models"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
	Models  models.Module
}
