// Package geo holds the coordinate work behind the route map: EPSG:25832
// (ETRS89 / UTM zone 32N) projection and line trimming.
package geo

import "math"

// GRS80 ellipsoid and UTM zone 32N parameters.
const (
	semiMajor       = 6378137.0
	flattening      = 1 / 298.257222101
	scaleFactor     = 0.9996
	falseEasting    = 500000.0
	centralMeridian = 9.0
)

// krueger holds the Krüger series coefficients, third order in n.
type krueger struct {
	n, a               float64
	alpha, beta, delta [3]float64
}

var tm = newKrueger()

func newKrueger() krueger {
	n := flattening / (2 - flattening)
	n2, n3 := n*n, n*n*n
	return krueger{
		n:     n,
		a:     semiMajor / (1 + n) * (1 + n2/4 + n2*n2/64),
		alpha: [3]float64{n/2 - 2*n2/3 + 5*n3/16, 13*n2/48 - 3*n3/5, 61 * n3 / 240},
		beta:  [3]float64{n/2 - 2*n2/3 + 37*n3/96, n2/48 + n3/15, 17 * n3 / 480},
		delta: [3]float64{2*n - 2*n2/3 - 2*n3, 7*n2/3 - 8*n3/5, 56 * n3 / 15},
	}
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

// ToUTM32 projects geographic lon/lat (degrees) to EPSG:25832 easting and
// northing in metres.
func ToUTM32(lon, lat float64) (x, y float64) {
	phi := rad(lat)
	dLambda := rad(lon - centralMeridian)

	e := 2 * math.Sqrt(tm.n) / (1 + tm.n)
	t := math.Sinh(math.Atanh(math.Sin(phi)) - e*math.Atanh(e*math.Sin(phi)))
	xiP := math.Atan2(t, math.Cos(dLambda))
	etaP := math.Atanh(math.Sin(dLambda) / math.Sqrt(1+t*t))

	xi, eta := xiP, etaP
	for j, a := range tm.alpha {
		k := 2 * float64(j+1)
		xi += a * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += a * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}

	return falseEasting + scaleFactor*tm.a*eta, scaleFactor * tm.a * xi
}

// FromUTM32 is the inverse of ToUTM32.
func FromUTM32(x, y float64) (lon, lat float64) {
	xi := y / (scaleFactor * tm.a)
	eta := (x - falseEasting) / (scaleFactor * tm.a)

	xiP, etaP := xi, eta
	for j, b := range tm.beta {
		k := 2 * float64(j+1)
		xiP -= b * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= b * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	phi := chi
	for j, d := range tm.delta {
		phi += d * math.Sin(2*float64(j+1)*chi)
	}
	lambda := math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	return centralMeridian + deg(lambda), deg(phi)
}
