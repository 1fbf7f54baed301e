package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRFloat(1.5)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		value IRValue
		kind  Kind
	}{
		{nil, KindNull},
		{IRNull{}, KindNull},
		{IRBool(false), KindBool},
		{IRInt(7), KindInt},
		{IRFloat(0.5), KindFloat},
		{IRString(""), KindString},
		{IRArray{}, KindArray},
		{IRObject{}, KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.value))
		})
	}
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(IRNull{}))
	assert.False(t, IsNull(IRString("")))
	assert.False(t, IsNull(IRInt(0)))
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra":  IRString("z"),
		"apple":  IRString("a"),
		"banana": IRString("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FF5E
	// in UTF-16 but after it in UTF-8.
	obj := IRObject{
		"\uFF5E":     IRInt(1),
		"\U0001F600": IRInt(2),
		"A":          IRInt(3),
		"AA":         IRInt(4),
		"a":          IRInt(5),
	}

	assert.Equal(t, []string{"A", "AA", "a", "\U0001F600", "\uFF5E"}, obj.SortedKeys())
}

func TestCloneIsDeep(t *testing.T) {
	original := IRObject{
		"list":   IRArray{IRInt(1), IRObject{"x": IRBool(true)}},
		"nested": IRObject{"name": IRString("a")},
	}

	cloned := Clone(original).(IRObject)
	require.True(t, Equal(original, cloned))

	cloned["nested"].(IRObject)["name"] = IRString("b")
	cloned["list"].(IRArray)[1].(IRObject)["x"] = IRBool(false)

	assert.Equal(t, IRString("a"), original["nested"].(IRObject)["name"])
	assert.Equal(t, IRBool(true), original["list"].(IRArray)[1].(IRObject)["x"])
}

func TestCloneNil(t *testing.T) {
	assert.Equal(t, IRNull{}, Clone(nil))

	var obj IRObject
	assert.Nil(t, obj.Clone())
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  IRValue
		equal bool
	}{
		{"nil and null", nil, IRNull{}, true},
		{"same string", IRString("x"), IRString("x"), true},
		{"different string", IRString("x"), IRString("y"), false},
		{"int vs float", IRInt(1), IRFloat(1), false},
		{"int vs string", IRInt(1), IRString("1"), false},
		{"bool vs int", IRBool(true), IRInt(1), false},
		{"arrays", IRArray{IRInt(1), IRInt(2)}, IRArray{IRInt(1), IRInt(2)}, true},
		{"array order", IRArray{IRInt(1), IRInt(2)}, IRArray{IRInt(2), IRInt(1)}, false},
		{"array length", IRArray{IRInt(1)}, IRArray{IRInt(1), IRInt(1)}, false},
		{"objects", IRObject{"a": IRInt(1), "b": IRNull{}}, IRObject{"b": IRNull{}, "a": IRInt(1)}, true},
		{"object missing key", IRObject{"a": IRNull{}}, IRObject{"b": IRNull{}}, false},
		{"object extra key", IRObject{"a": IRInt(1)}, IRObject{"a": IRInt(1), "b": IRInt(2)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, Equal(tt.a, tt.b))
			assert.Equal(t, tt.equal, Equal(tt.b, tt.a))
		})
	}
}

func TestIRObjectHas(t *testing.T) {
	obj := IRObject{"present": IRNull{}}
	assert.True(t, obj.Has("present"))
	assert.False(t, obj.Has("absent"))
}

func TestUnmarshalIRValueKinds(t *testing.T) {
	tests := []struct {
		input    string
		expected IRValue
	}{
		{`null`, IRNull{}},
		{`true`, IRBool(true)},
		{`42`, IRInt(42)},
		{`-7`, IRInt(-7)},
		{`1.5`, IRFloat(1.5)},
		{`1e3`, IRFloat(1000)},
		{`"hi"`, IRString("hi")},
		{`[1,"a",null]`, IRArray{IRInt(1), IRString("a"), IRNull{}}},
		{`{"a":{"b":[true]}}`, IRObject{"a": IRObject{"b": IRArray{IRBool(true)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, Equal(tt.expected, got), "got %#v", got)
		})
	}
}

func TestUnmarshalIRValueRejects(t *testing.T) {
	tests := map[string]string{
		"empty":          ``,
		"trailing data":  `1 2`,
		"int64 overflow": `9223372036854775808`,
		"bad json":       `{"a":`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestIRObjectJSONRoundTrip(t *testing.T) {
	obj := IRObject{
		"key":   IRString("wifi"),
		"value": IRObject{"ssid": IRString("home"), "channel": IRInt(6), "gain": IRFloat(2.5), "hidden": IRBool(false), "extra": IRNull{}},
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, Equal(obj, decoded))
}

func TestMarshalIRValueKeyOrder(t *testing.T) {
	data, err := MarshalIRValue(IRObject{"b": IRInt(1), "a": IRInt(2)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(data))
}

func TestMarshalIRValueFloatKeepsKind(t *testing.T) {
	data, err := MarshalIRValue(IRFloat(3))
	require.NoError(t, err)
	assert.Equal(t, "3.0", string(data))

	back, err := UnmarshalIRValue(data)
	require.NoError(t, err)
	assert.Equal(t, KindFloat, KindOf(back))
}

func TestHelperConstructors(t *testing.T) {
	obj := NewIRObjectFromPairs(
		O("name", NewIRString("cart")),
		O("count", NewIRInt(5)),
		O("ratio", NewIRFloat(0.25)),
		O("ok", NewIRBool(true)),
		O("tags", NewIRArray(NewIRString("a"))),
	)

	assert.Equal(t, IRString("cart"), obj["name"])
	assert.Equal(t, IRInt(5), obj["count"])
	assert.Equal(t, IRFloat(0.25), obj["ratio"])
	assert.Equal(t, IRBool(true), obj["ok"])
	assert.Equal(t, IRArray{IRString("a")}, obj["tags"])
}
