// Package similarity compares embedding vectors under a selectable metric.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Method selects how two vectors are compared.
type Method string

const (
	// Cosine is dot(v1,v2) / (|v1| |v2|); larger is more similar.
	Cosine Method = "cosine"
	// Euclidean is the L2 distance; smaller is more similar.
	Euclidean Method = "euclidean"
	// Dot is the raw dot product; larger is more similar.
	Dot Method = "dot"
)

// DefaultMethod is used when no method is configured.
const DefaultMethod = Cosine

// Methods lists the supported comparison methods.
var Methods = []Method{Cosine, Euclidean, Dot}

// Errors returned by Compare and ParseMethod.
var (
	ErrDimensionMismatch = errors.New("vector dimensions don't match")
	ErrUnknownMethod     = errors.New("unknown comparison method")
)

// DimensionMismatchError reports the lengths of two vectors that could not be compared.
type DimensionMismatchError struct {
	Len1 int
	Len2 int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %d vs %d", ErrDimensionMismatch, e.Len1, e.Len2)
}

// Is makes errors.Is(err, ErrDimensionMismatch) hold.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// UnknownMethodError reports a method tag outside Methods.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("%s: %q (use 'cosine', 'euclidean', or 'dot')", ErrUnknownMethod, e.Method)
}

// Is makes errors.Is(err, ErrUnknownMethod) hold.
func (e *UnknownMethodError) Is(target error) bool {
	return target == ErrUnknownMethod
}

// ParseMethod parses a method name, ignoring case and surrounding whitespace.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", &UnknownMethodError{Method: s}
	}
	return m, nil
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case Cosine, Euclidean, Dot:
		return true
	}
	return false
}

// HigherIsBetter reports whether larger scores mean more similar vectors.
// Euclidean is a distance, so it ranks ascending; cosine and dot rank descending.
func (m Method) HigherIsBetter() bool {
	return m != Euclidean
}

func (m Method) String() string {
	return string(m)
}

// Compare scores v1 against v2 under the given method.
// The vectors must have identical length.
func Compare(v1, v2 []float32, method Method) (float64, error) {
	if len(v1) != len(v2) {
		return 0, &DimensionMismatchError{Len1: len(v1), Len2: len(v2)}
	}

	switch method {
	case Cosine:
		return CosineSimilarity(v1, v2), nil
	case Euclidean:
		return EuclideanDistance(v1, v2), nil
	case Dot:
		return DotProduct(v1, v2), nil
	default:
		return 0, &UnknownMethodError{Method: string(method)}
	}
}

// DotProduct returns the unnormalized dot product of two equal-length vectors.
func DotProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Norm returns the L2 norm of v.
// Squares are summed in float64 so tiny or huge components neither
// underflow to zero nor overflow to +Inf.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the cosine similarity of two equal-length vectors.
// If either vector has zero norm the result is 0.
func CosineSimilarity(a, b []float32) float64 {
	normA := Norm(a)
	normB := Norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := DotProduct(a, b) / (normA * normB)

	// rounding can push |sim| a hair past 1 for parallel vectors
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}

// EuclideanDistance returns the L2 distance between two equal-length vectors.
func EuclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
