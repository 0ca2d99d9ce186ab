package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceBool(t *testing.T) {
	cases := []struct {
		in    any
		value bool
		ok    bool
	}{
		{true, true, true},
		{false, false, true},
		{"Yes", true, true},
		{"  y ", true, true},
		{"TRUE", true, true},
		{"1", true, true},
		{"0", false, true},
		{"No", false, true},
		{"n", false, true},
		{"false", false, true},
		{1, true, true},
		{int64(0), false, true},
		{0.0, false, true},
		{2.5, true, true},
		{"maybe", false, false},
		{"", false, false},
		{nil, false, false},
	}
	for _, tc := range cases {
		v, ok := CoerceBool(tc.in)
		assert.Equal(t, tc.ok, ok, "input %#v", tc.in)
		if ok {
			assert.Equal(t, tc.value, v, "input %#v", tc.in)
		}
	}
}

func TestCoerceInt(t *testing.T) {
	cases := []struct {
		in    any
		value int
		ok    bool
	}{
		{42, 42, true},
		{int64(-7), -7, true},
		{3.0, 3, true},
		{3.5, 0, false},
		{"17", 17, true},
		{" 17 ", 17, true},
		{"", 0, false},
		{"seventeen", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		v, ok := CoerceInt(tc.in)
		assert.Equal(t, tc.ok, ok, "input %#v", tc.in)
		if ok {
			assert.Equal(t, tc.value, v, "input %#v", tc.in)
		}
	}
}

func TestCoerceStatus(t *testing.T) {
	v, ok := CoerceStatus("  Submitted ")
	assert.True(t, ok)
	assert.Equal(t, "submitted", v)

	_, ok = CoerceStatus("")
	assert.False(t, ok)
	_, ok = CoerceStatus("   ")
	assert.False(t, ok)
	_, ok = CoerceStatus(nil)
	assert.False(t, ok)
}
