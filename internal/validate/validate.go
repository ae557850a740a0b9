// Package validate checks analysis request bodies against the embedded CUE
// schema before they are decoded into Go records.
package validate

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// Definitions of the request schemas, one per analysis module.
const (
	PortfolioRequest   = "#PortfolioRequest"
	TransactionRequest = "#TransactionRequest"
	PredictiveRequest  = "#PredictiveRequest"
	OccupancyRequest   = "#OccupancyRequest"
	LeaseRiskRequest   = "#LeaseRiskRequest"
)

// ErrInvalidRequest is wrapped by every validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// maxProblems bounds the number of messages carried by one ValidationError.
const maxProblems = 10

// ValidationError lists the schema violations of one request body.
type ValidationError struct {
	Definition string
	Problems   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRequest, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// Validator holds the compiled schema. A cue.Context is not safe for
// concurrent use, so calls are serialised.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling request schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// Validate checks body against the named definition.
func (v *Validator) Validate(definition string, body []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	def := v.schema.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("unknown schema definition %q", definition)
	}

	data := v.ctx.CompileBytes(body, cue.Filename("request.json"))
	if err := data.Err(); err != nil {
		return &ValidationError{Definition: definition, Problems: problems(err)}
	}
	if data.IncompleteKind() != cue.StructKind {
		return &ValidationError{Definition: definition, Problems: []string{"request body must be a JSON object"}}
	}

	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Definition: definition, Problems: problems(err)}
	}
	return nil
}

// problems flattens a CUE error list into readable messages.
func problems(err error) []string {
	var out []string
	for _, e := range cueerrors.Errors(err) {
		msg := e.Error()
		if path := strings.Join(e.Path(), "."); path != "" && !strings.HasPrefix(msg, path) {
			msg = path + ": " + msg
		}
		out = append(out, msg)
		if len(out) == maxProblems {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, err.Error())
	}
	return out
}
