package types

import (
	"fmt"
)

// ErrKind tells what went wrong while unifying or constraining types
type ErrKind int

const (
	CannotUnify ErrKind = iota
	CannotConstrain
	OccursCheck
	MissingLabel
	ExtraLabel
	CannotUnifyLabel
	MissingArgument
	ExtraArgument
	MissingPositionalArgument
	ExtraPositionalArgument
	CannotUnifyArgument
	CannotUnifyPositionalArgument
	CannotUnifyReturn
)

var errKindNames = [...]string{
	CannotUnify:                   "CannotUnify",
	CannotConstrain:               "CannotConstrain",
	OccursCheck:                   "OccursCheck",
	MissingLabel:                  "MissingLabel",
	ExtraLabel:                    "ExtraLabel",
	CannotUnifyLabel:              "CannotUnifyLabel",
	MissingArgument:               "MissingArgument",
	ExtraArgument:                 "ExtraArgument",
	MissingPositionalArgument:     "MissingPositionalArgument",
	ExtraPositionalArgument:       "ExtraPositionalArgument",
	CannotUnifyArgument:           "CannotUnifyArgument",
	CannotUnifyPositionalArgument: "CannotUnifyPositionalArgument",
	CannotUnifyReturn:             "CannotUnifyReturn",
}

func (k ErrKind) String() string {
	if k < 0 || int(k) >= len(errKindNames) {
		return "ErrKind(?)"
	}
	return errKindNames[k]
}

// TypeError is returned by Unify and Constrain.
// Which fields are set depends on Kind.
type TypeError struct {
	Kind ErrKind
	// Expected and Actual are set for CannotUnify, CannotUnifyReturn and OccursCheck
	Expected, Actual MonoType
	// Var is the offending variable of an OccursCheck
	Var Tvar
	// Constraint and Actual are set for CannotConstrain
	Constraint Kind
	// Label holds the record label or argument name involved, if any
	Label string
	// Index is the position of the positional argument involved, if any
	Index int
	// Cause is the nested failure for CannotUnifyLabel, CannotUnifyArgument
	// and CannotUnifyPositionalArgument
	Cause *TypeError
}

func (e *TypeError) Error() string {
	switch e.Kind {
	case CannotUnify:
		return fmt.Sprintf("expected %s but found %s", e.Expected, e.Actual)
	case CannotConstrain:
		return fmt.Sprintf("%s is not %s", e.Actual, e.Constraint)
	case OccursCheck:
		return fmt.Sprintf("type variable %s occurs in %s creating a cycle", e.Var, e.Actual)
	case MissingLabel:
		return fmt.Sprintf("record is missing label %s", e.Label)
	case ExtraLabel:
		return fmt.Sprintf("found unexpected label %s", e.Label)
	case CannotUnifyLabel:
		return fmt.Sprintf("record label %s: %s", e.Label, e.Cause)
	case MissingArgument:
		return fmt.Sprintf("missing required argument %s", e.Label)
	case ExtraArgument:
		return fmt.Sprintf("found unexpected argument %s", e.Label)
	case MissingPositionalArgument:
		return fmt.Sprintf("missing required positional argument at position %d", e.Index)
	case ExtraPositionalArgument:
		return fmt.Sprintf("found unexpected positional argument at position %d", e.Index)
	case CannotUnifyArgument:
		return fmt.Sprintf("argument %s: %s", e.Label, e.Cause)
	case CannotUnifyPositionalArgument:
		return fmt.Sprintf("positional argument %d: %s", e.Index, e.Cause)
	case CannotUnifyReturn:
		return fmt.Sprintf("cannot unify return types: expected %s but found %s", e.Expected, e.Actual)
	default:
		return "type error " + e.Kind.String()
	}
}

// Unwrap exposes the nested failure, so errors.As finds the innermost TypeError too
func (e *TypeError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Root follows Cause down to the failure which started it all
func (e *TypeError) Root() *TypeError {
	for e.Cause != nil {
		e = e.Cause
	}
	return e
}

func errCannotUnify(expected, actual MonoType) *TypeError {
	return &TypeError{Kind: CannotUnify, Expected: expected, Actual: actual}
}

func errCannotConstrain(actual MonoType, k Kind) *TypeError {
	return &TypeError{Kind: CannotConstrain, Actual: actual, Constraint: k}
}

func errOccurs(tv Tvar, t MonoType) *TypeError {
	return &TypeError{Kind: OccursCheck, Var: tv, Expected: Var(tv), Actual: t}
}

// asTypeError turns err into a *TypeError. Unify and Constrain never return anything else.
func asTypeError(err error) *TypeError {
	if te, ok := err.(*TypeError); ok {
		return te
	}
	panic(InternalError{Msg: fmt.Sprintf("unexpected error %T: %v", err, err)})
}
