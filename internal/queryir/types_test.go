package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kvdoc/internal/ir"
)

func TestSealedInterfaces(t *testing.T) {
	var _ Query = Select{}
	var _ Query = &Select{}
	var _ Predicate = Equals{}
	var _ Predicate = &Equals{}
	var _ Predicate = And{}
	var _ Predicate = &And{}
}

func TestFromObject(t *testing.T) {
	sel := FromObject("settings", ir.IRObject{
		"key":  ir.IRString("wifi"),
		"area": ir.IRString("home"),
	})

	assert.Equal(t, "settings", sel.From)
	and, ok := sel.Filter.(And)
	require.True(t, ok, "filter should be And, got %T", sel.Filter)
	require.Len(t, and.Predicates, 2)

	// Canonical key order keeps compiled SQL stable.
	assert.Equal(t, Equals{Field: "area", Value: ir.IRString("home")}, and.Predicates[0])
	assert.Equal(t, Equals{Field: "key", Value: ir.IRString("wifi")}, and.Predicates[1])
}

func TestFromObjectEmpty(t *testing.T) {
	assert.Equal(t, Select{From: "settings"}, FromObject("settings", nil))
	assert.Equal(t, Select{From: "settings"}, FromObject("settings", ir.IRObject{}))
}

func TestMatch(t *testing.T) {
	doc := ir.IRObject{
		"key":     ir.IRString("wifi"),
		"count":   ir.IRInt(1),
		"enabled": ir.IRBool(true),
		"note":    ir.IRNull{},
		"tags":    ir.IRArray{ir.IRString("a")},
	}

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"nil", nil, true},
		{"empty and", And{}, true},
		{"string equal", Equals{Field: "key", Value: ir.IRString("wifi")}, true},
		{"string differs", Equals{Field: "key", Value: ir.IRString("dns")}, false},
		{"missing field", Equals{Field: "absent", Value: ir.IRString("wifi")}, false},
		{"int equal", Equals{Field: "count", Value: ir.IRInt(1)}, true},
		{"int vs float", Equals{Field: "count", Value: ir.IRFloat(1)}, false},
		{"bool vs int", Equals{Field: "enabled", Value: ir.IRInt(1)}, false},
		{"explicit null", Equals{Field: "note", Value: ir.IRNull{}}, true},
		{"null vs missing", Equals{Field: "absent", Value: ir.IRNull{}}, false},
		{"array equal", Equals{Field: "tags", Value: ir.IRArray{ir.IRString("a")}}, true},
		{"pointer equals", &Equals{Field: "key", Value: ir.IRString("wifi")}, true},
		{"and all true", And{Predicates: []Predicate{
			Equals{Field: "key", Value: ir.IRString("wifi")},
			Equals{Field: "count", Value: ir.IRInt(1)},
		}}, true},
		{"and one false", &And{Predicates: []Predicate{
			Equals{Field: "key", Value: ir.IRString("wifi")},
			Equals{Field: "count", Value: ir.IRInt(2)},
		}}, false},
		{"nested and", And{Predicates: []Predicate{
			And{Predicates: []Predicate{Equals{Field: "enabled", Value: ir.IRBool(true)}}},
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pred, doc))
		})
	}
}

func TestMatchFromObjectRoundTrip(t *testing.T) {
	filter := ir.IRObject{"key": ir.IRString("wifi")}
	sel := FromObject("settings", filter)

	assert.True(t, Match(sel.Filter, ir.IRObject{"key": ir.IRString("wifi"), "value": ir.IRInt(3)}))
	assert.False(t, Match(sel.Filter, ir.IRObject{"key": ir.IRString("dns")}))
}
