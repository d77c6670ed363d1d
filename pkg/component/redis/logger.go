package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	goredis "github.com/redis/go-redis/v9"
)

// internalLogger receives go-redis's own messages (pool dials, reconnects)
// and logs them at debug level tagged component=redis. A nil log means the
// global logger at the time of the call.
type internalLogger struct {
	log core.Logger
}

func (l internalLogger) Printf(ctx context.Context, format string, v ...interface{}) {
	log := l.log
	if log == nil {
		log = logger.Global()
	}
	log.WithCtx(ctx, "component", "redis").Debugw(fmt.Sprintf(format, v...))
}

var installOnce sync.Once

// installInternalLogger routes go-redis logging once per process.
func installInternalLogger() {
	installOnce.Do(func() {
		goredis.SetLogger(internalLogger{})
	})
}
