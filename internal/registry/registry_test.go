package registry

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addr = "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"

func TestShort(t *testing.T) {
	assert.Equal(t, "0xAbCd…Ef01", Short(addr))
	assert.Equal(t, "0xA", Short("0xA"))
}

func exerciseRegistry(t *testing.T, r Registry) {
	ctx := context.Background()

	name, err := r.Name(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, "", name)
	assert.Equal(t, "0xAbCd…Ef01", Display(ctx, r, addr))

	require.NoError(t, r.SetName(ctx, addr, "  alice  "))
	name, err = r.Name(ctx, strings.ToLower(addr))
	require.NoError(t, err)
	assert.Equal(t, "alice", name, "lookup is case-insensitive on address")
	assert.Equal(t, "alice", Display(ctx, r, addr))

	require.NoError(t, r.SetName(ctx, addr, "bob"))
	name, _ = r.Name(ctx, addr)
	assert.Equal(t, "bob", name)

	long := strings.Repeat("名", 40)
	require.NoError(t, r.SetName(ctx, addr, long))
	name, _ = r.Name(ctx, addr)
	assert.Len(t, []rune(name), maxNameLen)

	// 空名字即清除
	require.NoError(t, r.SetName(ctx, addr, " "))
	name, _ = r.Name(ctx, addr)
	assert.Equal(t, "", name)
}

func TestMemoryRegistry(t *testing.T) {
	exerciseRegistry(t, NewMemoryRegistry())
}

func TestDisplayNilRegistry(t *testing.T) {
	assert.Equal(t, "0xAbCd…Ef01", Display(context.Background(), nil, addr))
}

// 需要真实 postgres：BIGTWO_TEST_DSN=postgres://... go test ./internal/registry
func TestPostgresRegistry(t *testing.T) {
	dsn := os.Getenv("BIGTWO_TEST_DSN")
	if dsn == "" {
		t.Skip("BIGTWO_TEST_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, EnsureSchema(ctx, db))
	_, _ = db.ExecContext(ctx, `DELETE FROM players WHERE address = $1`, Normalize(addr))

	exerciseRegistry(t, NewPostgresRegistry(db))
}
