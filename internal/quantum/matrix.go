package quantum

import "math"

// Matrix2 is a single-qubit operator. Row r and column c follow the basis order |0>, |1>.
type Matrix2 [2][2]Amplitude

// Matrix4 is a two-qubit operator over the basis |00>, |01>, |10>, |11>
type Matrix4 [4][4]Amplitude

// Matrix8 is a three-qubit operator over the basis |000> ... |111>
type Matrix8 [8][8]Amplitude

// Matrix is a square 2^k x 2^k operator of arbitrary size.
// The first qubit passed alongside a Matrix is the most significant bit of its row index.
type Matrix [][]Amplitude

// Matrix returns the generic form of m
func (m Matrix2) Matrix() Matrix {
	out := make(Matrix, 2)
	for r := range m {
		out[r] = append([]Amplitude(nil), m[r][:]...)
	}
	return out
}

// Matrix returns the generic form of m
func (m Matrix4) Matrix() Matrix {
	out := make(Matrix, 4)
	for r := range m {
		out[r] = append([]Amplitude(nil), m[r][:]...)
	}
	return out
}

// Matrix returns the generic form of m
func (m Matrix8) Matrix() Matrix {
	out := make(Matrix, 8)
	for r := range m {
		out[r] = append([]Amplitude(nil), m[r][:]...)
	}
	return out
}

// Dim returns the number of rows, or 0 when the matrix is not square
func (m Matrix) Dim() int {
	for _, row := range m {
		if len(row) != len(m) {
			return 0
		}
	}
	return len(m)
}

// NumQubits returns k for a 2^k x 2^k matrix, or -1 when m has another shape
func (m Matrix) NumQubits() int {
	dim := m.Dim()
	if dim == 0 || dim&(dim-1) != 0 {
		return -1
	}
	k := 0
	for 1<<k < dim {
		k++
	}
	return k
}

// Dagger returns the conjugate transpose
func (m Matrix) Dagger() Matrix {
	n := len(m)
	out := make(Matrix, n)
	for r := 0; r < n; r++ {
		out[r] = make([]Amplitude, n)
		for c := 0; c < n; c++ {
			out[r][c] = m[c][r].Conj()
		}
	}
	return out
}

// IsUnitary reports whether m†m equals the identity within eps
func (m Matrix) IsUnitary(eps float64) bool {
	n := m.Dim()
	if n == 0 {
		return false
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum Amplitude
			for k := 0; k < n; k++ {
				sum = sum.Add(m[k][i].Conj().Mul(m[k][j]))
			}
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(sum.Real-want) > eps || math.Abs(sum.Imag) > eps {
				return false
			}
		}
	}
	return true
}
