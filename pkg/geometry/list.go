package geometry

import (
	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/material"
)

// ShapeList is the scene aggregate: an ordered set of shapes scanned linearly
type ShapeList struct {
	shapes []Shape
}

// NewShapeList creates a list holding the given shapes
func NewShapeList(shapes ...Shape) *ShapeList {
	list := &ShapeList{}
	list.Add(shapes...)
	return list
}

// Add appends shapes to the list
func (l *ShapeList) Add(shapes ...Shape) {
	l.shapes = append(l.shapes, shapes...)
}

// Clear removes every shape
func (l *ShapeList) Clear() {
	l.shapes = nil
}

// Len returns the number of shapes
func (l *ShapeList) Len() int {
	return len(l.shapes)
}

// Shapes returns the shapes in insertion order
func (l *ShapeList) Shapes() []Shape {
	return l.shapes
}

// Hit returns the closest hit across all shapes. The upper bound shrinks to the
// closest t found so far, so later shapes only win when strictly closer.
func (l *ShapeList) Hit(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
	var closestHit *material.HitRecord
	closestSoFar := rayT.Max

	for _, shape := range l.shapes {
		if hit, isHit := shape.Hit(ray, rayT.WithMax(closestSoFar)); isHit {
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, closestHit != nil
}
