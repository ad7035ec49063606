package makefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarRenderSingleLine(t *testing.T) {
	v, err := NewVar("NAME", "value")
	require.NoError(t, err)
	assert.Equal(t, "NAME = value", v.Render(4.3))

	v, err = NewVarOp("NAME", Simple, "value")
	require.NoError(t, err)
	assert.Equal(t, "NAME := value", v.Render(4.3))

	v, err = NewVarOp("NAME", Conditional, "value")
	require.NoError(t, err)
	assert.Equal(t, "NAME ?= value", v.Render(4.3))

	v, err = NewVarOp("NAME", Append, "more")
	require.NoError(t, err)
	assert.Equal(t, "NAME += more", v.Render(4.3))

	v, err = NewVarOp("NAME", Immediate, "value")
	require.NoError(t, err)
	assert.Equal(t, "NAME :::= value", v.Render(4.3))
}

func TestVarRenderDefineBlock(t *testing.T) {
	v, err := NewVar("RECIPE", "echo one", "echo two")
	require.NoError(t, err)

	assert.Equal(t, "define RECIPE =\necho one\necho two\nendef\n", v.Render(4.3))

	// make 3.81 and older don't understand an operator after define
	assert.Equal(t, "define RECIPE\necho one\necho two\nendef\n", v.Render(3.81))
}

func TestVarValidation(t *testing.T) {
	_, err := NewVar("", "value")
	assert.Error(t, err)

	_, err = NewVar("KEY")
	assert.Error(t, err)
}

func TestAssignOpFromKind(t *testing.T) {
	cases := map[string]AssignOp{
		"":            Recursive,
		"recursive":   Recursive,
		"simple":      Simple,
		"immediate":   Immediate,
		"conditional": Conditional,
		"append":      Append,
	}
	for kind, want := range cases {
		op, err := AssignOpFromKind(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, want, op, kind)
	}

	_, err := AssignOpFromKind("bogus")
	assert.Error(t, err)
}
