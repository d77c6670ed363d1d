package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbopts "github.com/kart-io/campus-portal/pkg/options/database"
)

type note struct {
	ID   uint
	Body string
}

func TestOpen_SQLite(t *testing.T) {
	opts := dbopts.NewOptions()
	opts.SQLite = "file:" + t.Name() + "?mode=memory&cache=shared"

	c, err := Open(context.Background(), opts, nil, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "sqlite", c.Name())
	require.NoError(t, c.Ping(context.Background()))

	require.NoError(t, c.DB().AutoMigrate(&note{}))
	require.NoError(t, c.DB().Create(&note{Body: "hello"}).Error)

	var got note
	require.NoError(t, c.DB().First(&got).Error)
	assert.Equal(t, "hello", got.Body)
}

func TestOpen_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts *dbopts.Options
	}{
		{"nil options", nil},
		{"unknown driver", &dbopts.Options{Driver: "oracle", LogLevel: 1}},
		{"mysql without options", &dbopts.Options{Driver: dbopts.DriverMySQL, LogLevel: 1}},
		{"postgres without options", &dbopts.Options{Driver: dbopts.DriverPostgres, LogLevel: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.opts, nil, nil)
			assert.Error(t, err)
		})
	}
}
