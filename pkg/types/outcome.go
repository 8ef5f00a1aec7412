package types

// ResultKind tells how an action finished.
type ResultKind string

// Action result kinds.
const (
	ResultReturn ResultKind = "return"
	ResultThrow  ResultKind = "throw"
)

// Outcome is the terminal result of an intercepted action: either a returned
// value or an error.
type Outcome struct {
	Kind  ResultKind
	Value any
	Err   error
}

// Return builds an outcome carrying a returned value.
func Return(value any) Outcome {
	return Outcome{Kind: ResultReturn, Value: value}
}

// Throw builds an outcome carrying an error.
func Throw(err error) Outcome {
	return Outcome{Kind: ResultThrow, Err: err}
}

// OutcomeOf converts a (value, error) pair into an Outcome.
func OutcomeOf(value any, err error) Outcome {
	if err != nil {
		return Throw(err)
	}
	return Return(value)
}

// Unpack returns the outcome as a (value, error) pair.
func (o Outcome) Unpack() (any, error) {
	if o.Kind == ResultThrow {
		return nil, o.Err
	}
	return o.Value, nil
}
