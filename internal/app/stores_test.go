package app

import (
	"context"
	"testing"

	"github.com/sm8ta/webike_marketplace/internal/adapter/logger"
	"github.com/sm8ta/webike_marketplace/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStores_Memory(t *testing.T) {
	cfg := &config.Container{DB: &config.DB{Driver: "memory"}}

	st, err := openStores(context.Background(), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	assert.NotNil(t, st.users)
	assert.NotNil(t, st.bikes)
	assert.NotNil(t, st.requests)
	assert.NotNil(t, st.rentals)
	assert.NoError(t, st.Close(context.Background()))
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	cfg := &config.Container{DB: &config.DB{Driver: "sqlite"}}

	_, err := openStores(context.Background(), cfg, logger.NewNopLogger())
	assert.ErrorContains(t, err, "sqlite")
}
