// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package redis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidishook"
)

var _ rueidishook.Hook = (*LogHook)(nil)

// LogHook logs the name, latency and error of every command at debug level.
// Arguments are never logged since they may carry user data.
type LogHook struct {
	logger *slog.Logger
}

func NewLogHook(logger *slog.Logger) *LogHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHook{logger: logger.With(slog.String("component", "rueidis"))}
}

// cmdName copies the command name out, commands are recycled once executed.
func cmdName(cmds []string) string {
	if len(cmds) == 0 {
		return ""
	}
	return strings.Clone(cmds[0])
}

func (h *LogHook) log(ctx context.Context, name string, started time.Time, err error) {
	if err != nil && !rueidis.IsRedisNil(err) {
		h.logger.WarnContext(ctx, "redis command failed",
			slog.String("cmd", name),
			slog.Duration("latency", time.Since(started)),
			slog.Any("error", err),
		)
		return
	}
	h.logger.DebugContext(ctx, "redis command",
		slog.String("cmd", name),
		slog.Duration("latency", time.Since(started)),
	)
}

func (h *LogHook) Do(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	started := time.Now()
	name := cmdName(cmd.Commands())
	resp := client.Do(ctx, cmd)
	h.log(ctx, name, started, resp.Error())
	return resp
}

func (h *LogHook) DoMulti(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) []rueidis.RedisResult {
	started := time.Now()
	names := make([]string, len(multi))
	for i, cmd := range multi {
		names[i] = cmdName(cmd.Commands())
	}
	resps := client.DoMulti(ctx, multi...)
	for i, resp := range resps {
		h.log(ctx, names[i], started, resp.Error())
	}
	return resps
}

func (h *LogHook) DoCache(client rueidis.Client, ctx context.Context, cmd rueidis.Cacheable, ttl time.Duration) rueidis.RedisResult {
	started := time.Now()
	name := cmdName(cmd.Commands())
	resp := client.DoCache(ctx, cmd, ttl)
	h.log(ctx, name, started, resp.Error())
	return resp
}

func (h *LogHook) DoMultiCache(client rueidis.Client, ctx context.Context, multi ...rueidis.CacheableTTL) []rueidis.RedisResult {
	started := time.Now()
	names := make([]string, len(multi))
	for i, c := range multi {
		names[i] = cmdName(c.Cmd.Commands())
	}
	resps := client.DoMultiCache(ctx, multi...)
	for i, resp := range resps {
		h.log(ctx, names[i], started, resp.Error())
	}
	return resps
}

func (h *LogHook) Receive(client rueidis.Client, ctx context.Context, subscribe rueidis.Completed, fn func(msg rueidis.PubSubMessage)) error {
	started := time.Now()
	name := cmdName(subscribe.Commands())
	err := client.Receive(ctx, subscribe, fn)
	h.log(ctx, name, started, err)
	return err
}

func (h *LogHook) DoStream(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResultStream {
	return client.DoStream(ctx, cmd)
}

func (h *LogHook) DoMultiStream(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) rueidis.MultiRedisResultStream {
	return client.DoMultiStream(ctx, multi...)
}
