package core

import (
	"context"

	m "olps/models"
)

type ServiceContext struct {
	Context  context.Context
	Strategy m.Strategy
	Driver   *Driver
}
