package prompt

import (
	"github.com/meddor/scribe/internal/prompt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("prompt.service",
	fx.Provide(service.NewService),
)
