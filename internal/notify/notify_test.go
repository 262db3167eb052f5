package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpireMillis(t *testing.T) {
	assert.Equal(t, int32(-1), Notification{}.expireMillis())
	assert.Equal(t, int32(5000), Notification{Timeout: 5 * time.Second}.expireMillis())
	assert.Equal(t, int32(250), Notification{Timeout: 250 * time.Millisecond}.expireMillis())
}

func TestDisabled(t *testing.T) {
	var n Notifier = Disabled{}
	id, err := n.Notify(Notification{Summary: "x"})
	assert.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, n.Close(3))
}
