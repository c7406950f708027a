package types

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestConstrainScalars(t *testing.T) {
	testCases := []struct {
		typ  Scalar
		kind Kind
		ok   bool
	}{
		{Int, KindAddable, true},
		{Int, KindNegatable, true},
		{Int, KindRecord, false},
		{Uint, KindNegatable, false},
		{Float, KindDivisible, true},
		{String, KindAddable, true},
		{String, KindSubtractable, false},
		{Bool, KindEquatable, true},
		{Bool, KindComparable, false},
		{Duration, KindTimeable, true},
		{Time, KindNegatable, false},
		{Regexp, KindEquatable, false},
		{Bytes, KindEquatable, true},
		{Bytes, KindStringable, false},
	}
	for _, tc := range testCases {
		t.Run(tc.typ.String()+"/"+tc.kind.String(), func(t *testing.T) {
			sub, err := Constrain(tc.typ, tc.kind, KindConstraints{})
			if !tc.ok {
				require.Error(t, err)
				var typeErr *TypeError
				require.True(t, errors.As(err, &typeErr))
				assert.Equal(t, CannotConstrain, typeErr.Kind)
				assert.Equal(t, tc.kind, typeErr.Constraint)
				return
			}
			require.NoError(t, err)
			assert.True(t, sub.IsEmpty())
		})
	}
}

func TestConstrainIntMessages(t *testing.T) {
	_, err := Constrain(Int, KindRecord, KindConstraints{})
	require.Error(t, err)
	assert.Equal(t, "int is not Record", err.Error())

	sub, err := Constrain(Int, KindAddable, KindConstraints{})
	require.NoError(t, err)
	assert.True(t, sub.IsEmpty())
}

func TestConstrainVarDefers(t *testing.T) {
	cons := KindConstraints{}
	_, err := Constrain(Var(4), KindAddable, cons)
	require.NoError(t, err)
	_, err = Constrain(Var(4), KindAddable, cons)
	require.NoError(t, err)
	_, err = Constrain(Var(4), KindComparable, cons)
	require.NoError(t, err)

	assert.Equal(t, KindConstraints{4: {KindAddable, KindComparable}}, cons)
}

func TestConstrainCompound(t *testing.T) {
	cons := KindConstraints{}

	_, err := Constrain(NewArray(Var(0)), KindEquatable, cons)
	require.NoError(t, err)
	_, err = Constrain(NewArray(Int), KindAddable, cons)
	require.Error(t, err)

	_, err = Constrain(NewRecord([]Property{{"a", Int}}, nil), KindRecord, cons)
	require.NoError(t, err)
	_, err = Constrain(NewRecord([]Property{{"a", Var(1)}}, Var(2)), KindEquatable, cons)
	require.NoError(t, err)
	_, err = Constrain(NewRecord([]Property{{"a", Regexp}}, nil), KindEquatable, cons)
	require.Error(t, err)
	_, err = Constrain(EmptyRecord, KindAddable, cons)
	require.Error(t, err)

	_, err = Constrain(NewDictionary(String, Int), KindEquatable, cons)
	require.Error(t, err)
	_, err = Constrain(intFunc(), KindEquatable, cons)
	require.Error(t, err)

	assert.Equal(t, KindConstraints{
		0: {KindEquatable},
		1: {KindEquatable},
		2: {KindEquatable},
	}, cons)
}

func TestConstrainAll(t *testing.T) {
	cons := KindConstraints{}
	_, err := ConstrainAll(Float, []Kind{KindAddable, KindNegatable, KindComparable}, cons)
	require.NoError(t, err)

	_, err = ConstrainAll(String, []Kind{KindAddable, KindNegatable}, cons)
	require.Error(t, err)
	assert.Equal(t, "string is not Negatable", err.Error())
}
