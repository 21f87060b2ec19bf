package store

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"

	"modernc.org/sqlite"
)

// EncodeVector serializes a normalized vector as a float32 little-endian
// blob of length dims*4 (spec invariant I7).
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector parses a float32 little-endian blob back into a vector.
func DecodeVector(blob []byte) []float32 {
	n := len(blob) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// CosineDistance computes 1 - cos(a, b) over the shared prefix length of
// the two vectors. A zero-norm
// vector on either side yields distance 1.
func CosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 1
	}
	return 1 - dot/denom
}

var cosineRegistered bool

// registerCosineFunction installs vector_distance_cos as a scalar SQL
// function so Path B of the retrieval pipeline can ask SQLite to do the
// cosine scan in-database. This is an optional vector extension: when
// registration fails (an older or restricted modernc.org/sqlite build),
// HasVectorExtension() reports false and every caller uses
// CosineDistance in process instead.
func registerCosineFunction() error {
	if cosineRegistered {
		return nil
	}
	err := sqlite.RegisterDeterministicScalarFunction(
		"vector_distance_cos",
		2,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			ab, ok := args[0].([]byte)
			if !ok {
				return nil, fmt.Errorf("vector_distance_cos: argument 0 must be a blob")
			}
			bb, ok := args[1].([]byte)
			if !ok {
				return nil, fmt.Errorf("vector_distance_cos: argument 1 must be a blob")
			}
			return CosineDistance(DecodeVector(ab), DecodeVector(bb)), nil
		},
	)
	if err != nil {
		return err
	}
	cosineRegistered = true
	return nil
}
