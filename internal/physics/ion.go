package physics

import "strconv"

// Ion scan bounds. The composer walks every (Z, A) with Z in [1, IonScanMaxZ]
// and A in [2Z, 3Z] and attaches a step limiter to each ion whose canonical
// name is configured. The bounds are fixed constants of the scan, not
// configuration surface.
const (
	IonScanMaxZ = 40

	ionMassMinFactor = 2
	ionMassMaxFactor = 3
)

// elementSymbols holds the element symbol for atomic number Z at index Z-1,
// covering the full scan range.
var elementSymbols = [IonScanMaxZ]string{
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
}

// IonName returns the canonical species name for the ion with atomic number
// z and mass number a, e.g. IonName(26, 56) == "Fe56". It returns "" when z
// lies outside [1, IonScanMaxZ] or a < z.
func IonName(z, a int) string {
	if z < 1 || z > IonScanMaxZ || a < z {
		return ""
	}
	return elementSymbols[z-1] + strconv.Itoa(a)
}
