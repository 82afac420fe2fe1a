package alpr

import (
	"image"
	"math"
	"reflect"
)

// boxAccessors is the lookup order for a detection's bounding box. Engines
// disagree on the name, so the first one a detection exposes wins.
var boxAccessors = []string{"BoundingBox", "Box", "XYXY"}

// ExtractBox returns the bounding box of a detection as [x1, y1, x2, y2], or an
// empty slice when the detection exposes none of the known accessors or the
// value does not hold exactly four numbers. An accessor is either a
// zero-argument method or an exported struct field.
func ExtractBox(detection any) []float64 {
	if detection == nil {
		return []float64{}
	}
	for _, name := range boxAccessors {
		if v, ok := lookupAccessor(reflect.ValueOf(detection), name); ok {
			return NormalizeBox(v)
		}
	}
	return []float64{}
}

func lookupAccessor(v reflect.Value, name string) (any, bool) {
	if m := v.MethodByName(name); m.IsValid() {
		if m.Type().NumIn() != 0 || m.Type().NumOut() == 0 {
			return nil, false
		}
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return nil, true
		}
		return m.Call(nil)[0].Interface(), true
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	f, ok := v.Type().FieldByName(name)
	if !ok || !f.IsExported() {
		return nil, false
	}
	return v.FieldByIndex(f.Index).Interface(), true
}

// NormalizeBox converts a box value into a plain []float64 of length 4.
// Rectangles become [minX, minY, maxX, maxY]; numeric arrays and slices are
// converted element-wise. Anything else, including a box with a NaN or
// infinite coordinate, yields an empty slice.
func NormalizeBox(box any) []float64 {
	switch b := box.(type) {
	case nil:
		return []float64{}
	case image.Rectangle:
		return []float64{float64(b.Min.X), float64(b.Min.Y), float64(b.Max.X), float64(b.Max.Y)}
	case *image.Rectangle:
		if b == nil {
			return []float64{}
		}
		return NormalizeBox(*b)
	case []float64:
		if len(b) != 4 {
			return []float64{}
		}
		for _, f := range b {
			if !finite(f) {
				return []float64{}
			}
		}
		return append([]float64(nil), b...)
	}

	v := reflect.ValueOf(box)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return []float64{}
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []float64{}
	}
	if v.Len() != 4 {
		return []float64{}
	}
	out := make([]float64, 4)
	for i := range out {
		f, ok := toFloat(v.Index(i))
		if !ok {
			return []float64{}
		}
		out[i] = f
	}
	return out
}

func toFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return f, finite(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Interface:
		if v.IsNil() {
			return 0, false
		}
		return toFloat(v.Elem())
	}
	return 0, false
}

// finite reports whether f can be serialized as a JSON number.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
