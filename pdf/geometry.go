package pdf

import (
	"fmt"
)

// Rect is a rectangle in PDF user space (points), lower-left to upper-right.
type Rect struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

// Box returns the rectangle with its origin at (0,0) and the given size.
func Box(width, height float64) Rect {
	return Rect{X0: 0, Y0: 0, X1: width, Y1: height}
}

func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

func (r Rect) String() string {
	return fmt.Sprintf("[%v %v %v %v]", number(r.X0), number(r.Y0), number(r.X1), number(r.Y1))
}

// Matrix is a PDF transformation matrix [a b c d e f].
type Matrix [6]float64

// Identity is the identity transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Place returns the matrix that maps the unit square onto r, which is how
// image XObjects are sized and positioned.
func Place(r Rect) Matrix {
	return Matrix{r.Width(), 0, 0, r.Height(), r.X0, r.Y0}
}

// Fit returns the matrix that maps src onto dst, scaling each axis independently.
func Fit(src, dst Rect) Matrix {
	sx := 1.0
	sy := 1.0

	if w := src.Width(); w != 0 {
		sx = dst.Width() / w
	}

	if h := src.Height(); h != 0 {
		sy = dst.Height() / h
	}

	return Matrix{sx, 0, 0, sy, dst.X0 - src.X0*sx, dst.Y0 - src.Y0*sy}
}

// Multiply returns the transform that applies m first and then n.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Transform applies the matrix to the rectangle and returns the bounding box of the result.
func (m Matrix) Transform(r Rect) Rect {
	points := [][2]float64{
		{r.X0, r.Y0},
		{r.X1, r.Y0},
		{r.X0, r.Y1},
		{r.X1, r.Y1},
	}

	out := Rect{}
	for i, p := range points {
		x := m[0]*p[0] + m[2]*p[1] + m[4]
		y := m[1]*p[0] + m[3]*p[1] + m[5]

		if i == 0 || x < out.X0 {
			out.X0 = x
		}
		if i == 0 || x > out.X1 {
			out.X1 = x
		}
		if i == 0 || y < out.Y0 {
			out.Y0 = y
		}
		if i == 0 || y > out.Y1 {
			out.Y1 = y
		}
	}

	return out
}
