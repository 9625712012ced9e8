package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminal(t *testing.T) {
	terminal := []string{StatusPaymentReleased, StatusCancelled, StatusRefunded}
	for _, s := range terminal {
		assert.True(t, IsTerminal(s), s)
	}

	live := []string{StatusPending, StatusInEscrow, StatusPaymentRequested}
	for _, s := range live {
		assert.False(t, IsTerminal(s), s)
	}

	assert.False(t, IsTerminal("UNKNOWN"))
}
