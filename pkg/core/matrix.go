package core

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major matrix that serializes cleanly to JSON and
// converts to and from gonum. The compiled artifact stores all affine
// system data in this form so the round trip through a storage backend
// reproduces the matrices bit for bit.
type Matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// NewMatrix allocates a zero r×c matrix.
func NewMatrix(r, c int) Matrix {
	return Matrix{Rows: r, Cols: c, Data: make([]float64, r*c)}
}

// MatrixFrom copies a gonum matrix.
func MatrixFrom(m mat.Matrix) Matrix {
	r, c := m.Dims()
	out := NewMatrix(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Data[i*c+j] = m.At(i, j)
		}
	}
	return out
}

// Dense returns a gonum view backed by a copy of the data.
func (m Matrix) Dense() *mat.Dense {
	if m.Rows == 0 || m.Cols == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return mat.NewDense(m.Rows, m.Cols, data)
}

// At returns the element at row i, column j.
func (m Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

// Set assigns the element at row i, column j.
func (m *Matrix) Set(i, j int, v float64) {
	m.Data[i*m.Cols+j] = v
}

// IsZero reports whether the matrix has no allocated shape.
func (m Matrix) IsZero() bool {
	return m.Rows == 0 && m.Cols == 0
}

func (m Matrix) String() string {
	return fmt.Sprintf("Matrix(%dx%d)", m.Rows, m.Cols)
}
