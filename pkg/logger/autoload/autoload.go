// Package autoload configures the global logger from the environment
// when blank-imported by a main package.
package autoload

import (
	configx "github.com/egware/erpagent/pkg/config"
	logx "github.com/egware/erpagent/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
