package agg

import "math"

// earthRadius is the WGS84 equatorial radius used by the spherical Web
// Mercator projection, in metres.
const earthRadius = 6378137

// Mercator projects latitude/longitude onto the Web Mercator plane.
func Mercator(lat, lon float64) (x, y float64) {
	x = lon * (math.Pi / 180) * earthRadius
	y = earthRadius * math.Log(math.Tan((90+lat)*math.Pi/360))
	return x, y
}

// MercatorInverse recovers latitude/longitude from Web Mercator coordinates.
func MercatorInverse(x, y float64) (lat, lon float64) {
	lon = x / earthRadius / (math.Pi / 180)
	lat = math.Atan(math.Exp(y/earthRadius))*360/math.Pi - 90
	return lat, lon
}
