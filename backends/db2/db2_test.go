package db2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthis/soci"
)

func TestConnStringStripsLibraryOptions(t *testing.T) {
	params := soci.ConnectionParameters{
		BackendName:   "db2",
		ConnectString: "DATABASE=testdb;HOSTNAME=db.example.com;PORT=50000;reconnect=1",
	}
	dsn, err := connString(params)
	require.NoError(t, err)
	assert.Equal(t, "DATABASE=testdb;HOSTNAME=db.example.com;PORT=50000", dsn)
}

func TestSequenceQuery(t *testing.T) {
	assert.Equal(t,
		"select next value for app_seq from sysibm.sysdummy1",
		Dialect.SequenceValueQuery("app_seq"))
}

func TestDialectBasics(t *testing.T) {
	assert.Equal(t, "sysibm.sysdummy1", Dialect.DummyTable)
	dbt, ok := columnType("VARGRAPHIC")
	assert.True(t, ok)
	assert.Equal(t, soci.DBWString, dbt)
	assert.Contains(t, soci.RegisteredBackends(), "db2")
}
