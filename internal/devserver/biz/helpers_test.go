package biz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-portal/internal/devserver/store"
	"github.com/kart-io/campus-portal/pkg/component/database"
	dbopts "github.com/kart-io/campus-portal/pkg/options/database"
)

// newFactory opens a private in-memory database for one test.
func newFactory(t *testing.T) store.Factory {
	t.Helper()
	opts := dbopts.NewOptions()
	opts.SQLite = "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"

	db, err := database.Open(context.Background(), opts, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := store.NewFactory(db.DB())
	require.NoError(t, f.AutoMigrate())
	return f
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
