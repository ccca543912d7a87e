// README: Registered push-notification devices per user.
package device

import (
	"time"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

type Device struct {
	ID        types.ID
	UserID    types.ID
	Token     string
	Platform  string
	CreatedAt time.Time
}
