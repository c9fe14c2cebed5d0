package docs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	_ "github.com/jhoicas/invorya-stock/docs"
)

func TestSwagger_DocumentoRegistrado(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Contains(t, doc.Paths, "/api/invoices")
	assert.Contains(t, doc.Paths["/api/invoices/{id}/cancel"], "post")
	assert.Contains(t, doc.Paths["/api/inventory/items/{id}/adjustments"], "post")
}
