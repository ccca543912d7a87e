// README: Best-effort push notification contract.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

// Notifier fans a message out to every registered device of the given
// users. Implementations are best-effort: callers log the returned error
// and move on, and must never invoke Notify inside a storage transaction.
type Notifier interface {
	Notify(ctx context.Context, userIDs []types.ID, title, body string, data map[string]string) error
}

// LogNotifier writes notifications to the log only. Used when Firebase is
// not configured (local development) and as a test double.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, userIDs []types.ID, title, body string, _ map[string]string) error {
	n.log.Info("notification (log only)",
		zap.Int("recipients", len(userIDs)),
		zap.String("title", title),
		zap.String("body", body),
	)
	return nil
}
