package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client := InitRedis(mr.Addr())
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestInitRedis_URL(t *testing.T) {
	mr := miniredis.RunT(t)

	client := InitRedis("redis://" + mr.Addr() + "/0")
	require.NotNil(t, client)
	_ = client.Close()
}

func TestInitRedis_Unavailable(t *testing.T) {
	assert.Nil(t, InitRedis("127.0.0.1:1"))
	assert.Nil(t, InitRedis("redis://%zz"))
}
