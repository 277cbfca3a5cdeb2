package database

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr(), "")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = ConnectRedis(context.Background(), "", "gradebook-test")
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), "not a url", "gradebook-test")
	require.Error(t, err)
}

func TestConnectRejectsEmptyTargets(t *testing.T) {
	_, err := ConnectPostgres("", PoolConfig{})
	require.Error(t, err)

	_, err = ConnectNATS("", "gradebook", zerolog.Nop())
	require.Error(t, err)
}
