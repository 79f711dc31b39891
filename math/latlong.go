// math/latlong.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
	"regexp"
	"strconv"
)

// EarthRadiusM is the mean Earth radius used for haversine distances.
const EarthRadiusM = 6371000

///////////////////////////////////////////////////////////////////////////
// Point2LL

// Point2LL represents a 2D point on the Earth in latitude-longitude.
// Important: 0 (x) is longitude, 1 (y) is latitude, matching GeoJSON.
type Point2LL [2]float64

// LL makes a Point2LL from latitude and longitude, in that order.
func LL(lat, lon float64) Point2LL {
	return Point2LL{lon, lat}
}

func (p Point2LL) Longitude() float64 {
	return p[0]
}

func (p Point2LL) Latitude() float64 {
	return p[1]
}

// DDString returns the position in decimal degrees, e.g.:
// (37.774900, -122.419400)
func (p Point2LL) DDString() string {
	return fmt.Sprintf("(%f, %f)", p[1], p[0]) // latitude, longitude
}

// DMSString returns the position in degrees minutes, seconds, e.g.
// N037.46.29.640,W122.25.09.840
func (p Point2LL) DMSString() string {
	format := func(v float64) string {
		s := fmt.Sprintf("%03d", int(v))
		v -= gomath.Floor(v)
		v *= 60
		s += fmt.Sprintf(".%02d", int(v))
		v -= gomath.Floor(v)
		v *= 60
		s += fmt.Sprintf(".%02d", int(v))
		v -= gomath.Floor(v)
		v *= 1000
		s += fmt.Sprintf(".%03d", int(gomath.Round(v)))
		return s
	}

	var s string
	if p[1] >= 0 {
		s = "N"
	} else {
		s = "S"
	}
	s += format(Abs(p[1]))

	if p[0] >= 0 {
		s += ",E"
	} else {
		s += ",W"
	}
	s += format(Abs(p[0]))

	return s
}

func (p Point2LL) String() string {
	return p.DDString()
}

// Distance2LL returns the great-circle distance in metres between two
// lat-long coordinates using the haversine formula.
func Distance2LL(a Point2LL, b Point2LL) float64 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	lat1, lon1 := Radians(a[1]), Radians(a[0])
	lat2, lon2 := Radians(b[1]), Radians(b[0])
	dlat, dlon := lat2-lat1, lon2-lon1

	x := Sqr(gomath.Sin(dlat/2)) + gomath.Cos(lat1)*gomath.Cos(lat2)*Sqr(gomath.Sin(dlon/2))
	// Rounding can push x a hair outside [0,1] for antipodal points.
	x = Clamp(x, 0, 1)
	c := 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))
	return EarthRadiusM * c
}

// Lerp2LL linearly interpolates between a and b componentwise. This is a
// flat-earth approximation; it is fine for short hops but should not be
// used to compute distances.
func Lerp2LL(a Point2LL, b Point2LL, x float64) Point2LL {
	return Point2LL{Lerp(x, a[0], b[0]), Lerp(x, a[1], b[1])}
}

var (
	// pair of floats (no exponents)
	reLatLongFloat = regexp.MustCompile(`^ *(\-?[0-9]+(?:\.[0-9]+)?), *(\-?[0-9]+(?:\.[0-9]+)?) *$`)
	// https://en.wikipedia.org/wiki/ISO_6709#String_expression_(Annex_H)
	// e.g. +403527.580-0734452.955
	reISO6709H = regexp.MustCompile(`^([-+][0-9][0-9])([0-9][0-9])([0-9][0-9])\.([0-9][0-9][0-9])([-+][0-9][0-9][0-9])([0-9][0-9])([0-9][0-9])\.([0-9][0-9][0-9])$`)
)

// ParseLatLong parses positions written as decimal degrees ("37.7749,
// -122.4194"), dotted DMS ("N037.46.29.640,W122.25.09.840") or ISO 6709
// Annex H ("+374629.640-1222509.840").
func ParseLatLong(llstr []byte) (Point2LL, error) {
	if p, ok := tryParseDotted(llstr); ok {
		return p, nil
	} else if strs := reLatLongFloat.FindStringSubmatch(string(llstr)); len(strs) == 3 {
		lat, err := strconv.ParseFloat(strs[1], 64)
		if err != nil {
			return Point2LL{}, err
		}
		lon, err := strconv.ParseFloat(strs[2], 64)
		if err != nil {
			return Point2LL{}, err
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return Point2LL{}, fmt.Errorf("%s: latlong out of range", llstr)
		}
		return LL(lat, lon), nil
	} else if strs := reISO6709H.FindStringSubmatch(string(llstr)); len(strs) == 9 {
		parse := func(deg, min, sec, frac string) (float64, error) {
			d, err := strconv.Atoi(deg)
			if err != nil {
				return 0, err
			}
			m, err := strconv.Atoi(min)
			if err != nil {
				return 0, err
			}
			s, err := strconv.Atoi(sec)
			if err != nil {
				return 0, err
			}
			f, err := strconv.Atoi(frac)
			if err != nil {
				return 0, err
			}
			v := float64(Abs(d)) + float64(m)/60 + float64(s)/3600 + float64(f)/3600000
			if deg[0] == '-' {
				v = -v
			}
			return v, nil
		}

		lat, err := parse(strs[1], strs[2], strs[3], strs[4])
		if err != nil {
			return Point2LL{}, err
		}
		lon, err := parse(strs[5], strs[6], strs[7], strs[8])
		if err != nil {
			return Point2LL{}, err
		}
		return LL(lat, lon), nil
	}
	return Point2LL{}, fmt.Errorf("%s: invalid latlong string", llstr)
}

// tryParseDotted handles "N40.37.58.400, W073.46.17.000".
func tryParseDotted(b []byte) (Point2LL, bool) {
	if len(b) == 0 || (b[0] != 'N' && b[0] != 'S') {
		return Point2LL{}, false
	}
	negateLatitude := b[0] == 'S'

	b = b[1:]
	latitude, n, ok := tryParseDottedNumbers(b)
	if !ok {
		return Point2LL{}, false
	}
	if negateLatitude {
		latitude = -latitude
	}
	b = b[n:]

	if len(b) == 0 || b[0] != ',' {
		return Point2LL{}, false
	}
	b = b[1:]
	if len(b) > 0 && b[0] == ' ' {
		b = b[1:]
	}

	if len(b) == 0 || (b[0] != 'E' && b[0] != 'W') {
		return Point2LL{}, false
	}
	negateLongitude := b[0] == 'W'

	b = b[1:]
	longitude, n, ok := tryParseDottedNumbers(b)
	if !ok || n != len(b) {
		return Point2LL{}, false
	}
	if negateLongitude {
		longitude = -longitude
	}

	return LL(latitude, longitude), true
}

// tryParseDottedNumbers parses aaa.bbb.ccc.ddd as degrees, minutes,
// seconds and milliseconds. It returns the value, the number of bytes of
// b consumed, and whether it succeeded.
func tryParseDottedNumbers(b []byte) (float64, int, bool) {
	n := 0
	var ll float64

	scan := func(b []byte) int {
		for i, v := range b {
			if v == '.' || v == ',' {
				return i
			}
		}
		return len(b)
	}

	for i := 0; i < 4; i++ {
		end := scan(b)
		if end == 0 {
			return 0, 0, false
		}

		value := 0
		for _, ch := range b[:end] {
			if ch < '0' || ch > '9' {
				return 0, 0, false
			}
			value = value*10 + int(ch-'0')
		}
		if i == 3 {
			// Treat the last set of digits as a decimal, so that
			// Nxx.yy.zz.1 is handled like Nxx.yy.zz.100.
			for j := end; j < 3; j++ {
				value *= 10
			}
		}

		scales := [4]float64{1, 60, 3600, 3600000}
		ll += float64(value) / scales[i]
		n += end
		b = b[end:]

		if i < 3 {
			if len(b) == 0 || b[0] != '.' {
				return 0, 0, false
			}
			b = b[1:]
			n++
		}
	}

	return ll, n, true
}
