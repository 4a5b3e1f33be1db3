package util

import (
	"github.com/castwave/castwave/lib/util/logger"
)

var log = logger.GetCastwaveLogger()
