// Package units converts blood Phe concentrations between the two units
// clinics report in. Conversion uses the fixed molar factor for
// phenylalanine and rounds to one decimal, so round-trips are lossy
// within 0.1 units.
package units

import "math"

// molarFactor converts mg/dL of phenylalanine to µmol/L.
const molarFactor = 60.54

// MgDlToUmol converts a mg/dL concentration to µmol/L.
func MgDlToUmol(mgDl float64) float64 {
	return round1(mgDl * molarFactor)
}

// UmolToMgDl converts a µmol/L concentration to mg/dL.
func UmolToMgDl(umol float64) float64 {
	return round1(umol / molarFactor)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
