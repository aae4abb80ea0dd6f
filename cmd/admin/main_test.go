package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anikmoz/green-firm-house/internal/config"
	"github.com/anikmoz/green-firm-house/internal/dto"
	"github.com/anikmoz/green-firm-house/internal/infra"
	"github.com/anikmoz/green-firm-house/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := infra.NewDatabase(context.Background(), "sqlite::memory:?_pragma=foreign_keys(1)", 1, time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	cfg := &config.Config{Env: "test", AppName: "greenFirmHouseApp", ListDefault: 20, ListMaxSize: 100, CORSAllowList: []string{"*"}}
	srv := httptest.NewServer(router.New(cfg, router.Dependencies{DB: db}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, api, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--api", api}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProductTypeCommands(t *testing.T) {
	api := newAPI(t)

	out, err := run(t, api, "", "product-types", "list")
	require.NoError(t, err)
	assert.Equal(t, "No Product Types found\n", out)

	out, err = run(t, api, `{"name":"Tomatoes"}`, "product-types", "create")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Done.\n"), out)
	assert.Contains(t, out, "1 of 1 Product Types")

	out, err = run(t, api, "", "product-types", "patch", "1", "-d", `{"name":"Ripe Tomatoes"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Ripe Tomatoes")

	out, err = run(t, api, "", "product-types", "get", "1")
	require.NoError(t, err)
	assert.Regexp(t, `Name:\s+Ripe Tomatoes`, out)

	out, err = run(t, api, "", "product-types", "get", "2")
	require.NoError(t, err)
	assert.Equal(t, "Product Type not found\n", out)

	out, err = run(t, api, "n\n", "product-types", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	out, err = run(t, api, "", "product-types", "delete", "1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "No Product Types found")
}

func TestCreateRejectedByServer(t *testing.T) {
	api := newAPI(t)

	_, err := run(t, api, `{"phone":"1"}`, "customers", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 422")
}

func TestCreateShowsSavedRecordWhenRefreshFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/product-types", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": 1, "name": "Tomatoes"})
	})
	r.GET("/api/product-types", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "listing is down"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	out, err := run(t, srv.URL, `{"name":"Tomatoes"}`, "product-types", "create")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Done.\n"), out)
	assert.Regexp(t, `Name:\s+Tomatoes`, out)
	assert.NotContains(t, out, "Error:")
	assert.Contains(t, out, "List refresh failed:")
}

func TestDecodeRecord(t *testing.T) {
	rec, err := decodeRecord[dto.Customer](strings.NewReader(`{"id":9,"name":"Karim"}`), "-", dto.Int64(3))
	require.NoError(t, err)
	assert.EqualValues(t, 3, *rec.ID, "path id wins")
	assert.Equal(t, "Karim", *rec.Name)

	path := filepath.Join(t.TempDir(), "pt.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Honey"}`), 0o600))
	pt, err := decodeRecord[dto.ProductType](nil, "@"+path, nil)
	require.NoError(t, err)
	assert.Nil(t, pt.ID)
	assert.Equal(t, "Honey", *pt.Name)

	_, err = decodeRecord[dto.ProductType](nil, `[1,2]`, nil)
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"0", "-3", "abc", ""} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
