package collcomm

import (
	"fmt"
	"math"
	"strings"
)

// An Op is an associative, commutative reduction operator.
//
// Callers are responsible for only using operators where
// combination order does not matter; it is never checked.
type Op int

const (
	Sum Op = iota
	Prod
	Max
	Min
)

type opInfo struct {
	name     string
	identity float64
	apply    func(a, b float64) float64
}

var opTable = [...]opInfo{
	Sum:  {"sum", 0, func(a, b float64) float64 { return a + b }},
	Prod: {"prod", 1, func(a, b float64) float64 { return a * b }},
	Max:  {"max", math.Inf(-1), math.Max},
	Min:  {"min", math.Inf(1), math.Min},
}

// ParseOp looks up an Op by name ("sum", "prod", "max",
// or "min").
func ParseOp(name string) (Op, error) {
	name = strings.ToLower(name)
	if name == "product" {
		name = "prod"
	}
	for op, info := range opTable {
		if info.name == name {
			return Op(op), nil
		}
	}
	return 0, fmt.Errorf("unknown operator: %q", name)
}

func (o Op) info() *opInfo {
	if o < 0 || int(o) >= len(opTable) {
		panic(fmt.Sprintf("unknown operator: %d", int(o)))
	}
	return &opTable[o]
}

// String returns the operator's name.
func (o Op) String() string {
	return o.info().name
}

// Identity is the value x for which Apply(x, y) == y.
func (o Op) Identity() float64 {
	return o.info().identity
}

// Apply combines two scalars.
func (o Op) Apply(a, b float64) float64 {
	return o.info().apply(a, b)
}

// Fold reduces a vector to a scalar, starting from the
// identity.
func (o Op) Fold(vec []float64) float64 {
	apply := o.info().apply
	res := o.Identity()
	for _, x := range vec {
		res = apply(res, x)
	}
	return res
}

// Reduce combines equal-length vectors elementwise into a
// new vector.
// The vectors are combined in argument order.
func (o Op) Reduce(vecs ...[]float64) []float64 {
	if len(vecs) == 0 {
		panic("no vectors to reduce")
	}
	for _, v := range vecs[1:] {
		if len(v) != len(vecs[0]) {
			panic("mismatching lengths")
		}
	}
	res := append([]float64{}, vecs[0]...)
	apply := o.info().apply
	for _, v := range vecs[1:] {
		for i, x := range v {
			res[i] = apply(res[i], x)
		}
	}
	return res
}
