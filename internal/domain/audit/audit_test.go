package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsKnownAction(t *testing.T) {
	assert.True(t, IsKnownAction(ActionRMASubmitted))
	assert.True(t, IsKnownAction(ActionMERPCreditTriggered))
	assert.False(t, IsKnownAction("RMA_ARCHIVED"))
}

func TestIPAddressContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, IPAddressFrom(ctx))
	assert.Equal(t, ctx, WithIPAddress(ctx, ""))

	ip := IPAddressFrom(WithIPAddress(ctx, "10.0.0.7"))
	require.NotNil(t, ip)
	assert.Equal(t, "10.0.0.7", *ip)
}
