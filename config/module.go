// SPDX-License-Identifier: EPL-2.0

package config

import (
	"go.uber.org/fx"
)

// Module provides *Config from the file path supplied to the fx graph.
var Module = fx.Module("config",
	fx.Provide(LoadConfig),
)
