package core

// RGB is a linear, unclamped radiance triple
type RGB struct {
	R, G, B float64
}

// NewRGB creates a new RGB value
func NewRGB(r, g, b float64) RGB {
	return RGB{R: r, G: g, B: b}
}

// Add returns the channel-wise sum of two values
func (c RGB) Add(other RGB) RGB {
	return RGB{c.R + other.R, c.G + other.G, c.B + other.B}
}

// Multiply returns the value scaled by a scalar
func (c RGB) Multiply(scalar float64) RGB {
	return RGB{c.R * scalar, c.G * scalar, c.B * scalar}
}

// MultiplyRGB returns the channel-wise product of two values
func (c RGB) MultiplyRGB(other RGB) RGB {
	return RGB{c.R * other.R, c.G * other.G, c.B * other.B}
}

// Luminance returns the Rec. 709 luminance of the value
func (c RGB) Luminance() float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Clamp returns a value with channels clamped to [min, max]
func (c RGB) Clamp(minVal, maxVal float64) RGB {
	return RGB{
		R: max(minVal, min(maxVal, c.R)),
		G: max(minVal, min(maxVal, c.G)),
		B: max(minVal, min(maxVal, c.B)),
	}
}
