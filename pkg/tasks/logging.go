package tasks

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/petrijr/expressflow/pkg/api"
)

// WithLogging wraps inv so every input it receives is logged as JSON at
// debug level, along with the status it answered.
func WithLogging(logger *slog.Logger, name string, inv api.Invoker) api.Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return api.InvokerFunc(func(ctx context.Context, in api.Payload) (api.TaskResult, error) {
		if logger.Enabled(ctx, slog.LevelDebug) {
			raw, err := json.Marshal(in)
			if err != nil {
				raw = []byte(`"<unencodable>"`)
			}
			logger.DebugContext(ctx, "task_input",
				slog.String("task", name),
				slog.String("input", string(raw)),
			)
		}

		start := time.Now()
		res, err := inv.Invoke(ctx, in)
		if err != nil {
			logger.WarnContext(ctx, "task_fault",
				slog.String("task", name),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)
			return res, err
		}
		logger.DebugContext(ctx, "task_output",
			slog.String("task", name),
			slog.String("status", res.Status.String()),
			slog.Duration("duration", time.Since(start)),
		)
		return res, nil
	})
}
