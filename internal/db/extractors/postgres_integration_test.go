//go:build integration

package extractors

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"xtd/internal/db"
	"xtd/internal/infer"
	"xtd/internal/introspect"
	"xtd/internal/schema"
	"xtd/internal/xmltree"
)

func TestPostgresRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("xtd"),
		postgres.WithUsername("xtd"),
		postgres.WithPassword("xtd"),
		postgres.BasicWaitStrategies(),
	)
	defer func() {
		assert.NoError(t, testcontainers.TerminateContainer(ctr))
	}()
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	res, err := infer.Run(strings.NewReader(library), infer.Options{})
	require.NoError(t, err)

	got, err := db.ConnectApplyAndExtract("postgres", dsn, 30, res.Schema())
	require.NoError(t, err)

	// tables come back sorted by name
	var names []string
	for _, tab := range got.Tables {
		names = append(names, tab.Name)
		assert.True(t, tab.Columns[0].PK, "table %s", tab.Name)
	}
	assert.Equal(t, []string{"book", "library", "price", "title"}, names)

	reference := introspect.ToRegistry(got)
	price, ok := reference.Table("price")
	require.True(t, ok)
	typ, _ := price.Attribute(schema.ValueColumn)
	assert.Equal(t, schema.Float, typ, "DOUBLE PRECISION")

	root, err := xmltree.Parse(strings.NewReader(library))
	require.NoError(t, err)
	assert.NoError(t, infer.CheckAgainst(root, reference, infer.Options{}))
}
