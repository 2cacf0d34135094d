package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationsSetKeepsOrder(t *testing.T) {
	var credits Annotations
	credits = credits.Set("Director", "Jane")
	credits = credits.Set("DOP", "Ken")
	credits = credits.Set("Director", "Janet")

	require.Len(t, credits, 2)
	assert.Equal(t, "Director", credits[0].Key)
	assert.Equal(t, "Janet", credits[0].Value)
	assert.True(t, credits[1].Visible)

	v, ok := credits.Get("DOP")
	assert.True(t, ok)
	assert.Equal(t, "Ken", v)
}

func TestAnnotationsSetDoesNotAliasInput(t *testing.T) {
	original := Annotations{{Key: "Client", Value: "Acme", Visible: true}}
	updated := original.Set("Client", "Globex")

	assert.Equal(t, "Acme", original[0].Value)
	assert.Equal(t, "Globex", updated[0].Value)
}

func TestAnnotationsVisibility(t *testing.T) {
	credits := Annotations{
		{Key: "Director", Value: "Jane", Visible: true},
		{Key: "Budget", Value: "secret", Visible: true},
		{Key: "Editor", Value: "Lee", Visible: true},
	}
	credits = credits.SetVisible("Budget", false).SetVisible("Unknown", false)

	visible := credits.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "Director", visible[0].Key)
	assert.Equal(t, "Editor", visible[1].Key)
}

func TestAnnotationsDelete(t *testing.T) {
	credits := Annotations{{Key: "A"}, {Key: "B"}, {Key: "C"}}
	credits = credits.Delete("B").Delete("missing")

	require.Len(t, credits, 2)
	assert.Equal(t, "A", credits[0].Key)
	assert.Equal(t, "C", credits[1].Key)
}

func TestAnnotationsValidate(t *testing.T) {
	assert.NoError(t, Annotations{{Key: "A"}, {Key: "B"}}.Validate())
	assert.Error(t, Annotations{{Key: "A"}, {Key: "A"}}.Validate())
	assert.Error(t, Annotations{{Key: "  "}}.Validate())
}

func TestAnnotationsJSONIsOrderedArray(t *testing.T) {
	credits := Annotations{{Key: "Z", Value: "1", Visible: true}, {Key: "A", Value: "2"}}
	data, err := json.Marshal(credits)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"key":"Z","value":"1","visible":true},{"key":"A","value":"2","visible":false}]`, string(data))
}

func TestCatalogLookup(t *testing.T) {
	catalog := DefaultCatalog()
	def, ok := catalog.Lookup("motions")
	require.True(t, ok)
	assert.True(t, def.Accepts(MediaVideo))

	stills, _ := catalog.Lookup("stills")
	assert.False(t, stills.Accepts(MediaVideo))

	_, ok = catalog.Lookup("props")
	assert.False(t, ok)
	assert.Equal(t, []string{"hero_banners", "stills", "motions", "clients", "locations"}, catalog.Names())
}
