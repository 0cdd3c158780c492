package util

import (
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// There is a race condition around global internal state of CUE.
var cueMutex = &sync.Mutex{}

type CUEString string

func (self CUEString) Value(ctx *cue.Context, optionsFunc func(*cue.Context) []cue.BuildOption) cue.Value {
	if ctx == nil {
		cueMutex.Lock()
		defer cueMutex.Unlock()

		ctx = cuecontext.New()
	}

	var options []cue.BuildOption
	if optionsFunc == nil {
		options = []cue.BuildOption{}
	} else {
		options = optionsFunc(ctx)
	}

	return ctx.CompileString(string(self), options...)
}

// MatchValue unifies the expression with the given value and reports
// whether the result validates as final. The first return is the match
// failure, the second an evaluation error.
func (self CUEString) MatchValue(value any) (error, error) {
	match := self.Value(nil, nil)
	if err := match.Err(); err != nil {
		return nil, err
	}

	encoded := match.Context().Encode(value)
	if err := encoded.Err(); err != nil {
		return nil, err
	}

	return match.Unify(encoded).Validate(cue.Final()), nil
}
