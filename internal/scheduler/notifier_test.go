package scheduler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"
)

func TestBlockedByUser(t *testing.T) {
	// The API client wraps its sentinel; errors.Is must see through it.
	assert.True(t, blockedByUser(fmt.Errorf("%w, Forbidden: bot was blocked by the user", bot.ErrorForbidden)))
	assert.True(t, blockedByUser(bot.ErrorForbidden))

	// Unwrapped transports still match on the API description.
	assert.True(t, blockedByUser(errors.New("Forbidden: bot was blocked by the user")))

	assert.False(t, blockedByUser(nil))
	assert.False(t, blockedByUser(errors.New("Bad Request: chat not found")))
	assert.False(t, blockedByUser(bot.ErrorBadRequest))
}
