package citynet

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/voidshard/citynet/coords"
	"github.com/voidshard/citynet/internal/geometry"
)

// FormatError is returned for malformed coordinate text.
type FormatError = coords.FormatError

// GeometryError is returned for degenerate or self intersecting rings.
type GeometryError = geometry.GeometryError

var (
	// ErrFormat matches every FormatError
	ErrFormat = coords.ErrFormat

	// ErrGeometry matches every GeometryError
	ErrGeometry = geometry.ErrGeometry

	// ErrOutOfBounds matches every OutOfBoundsError
	ErrOutOfBounds = errors.New("point is not inside any cell")

	// ErrReference matches every ReferenceError
	ErrReference = errors.New("point does not resolve to a node")

	// ErrUnknownRegion implies a region ID that the system (or city) doesn't hold
	ErrUnknownRegion = errors.New("unknown region")

	// ErrInvalidRegion implies a region whose kind, shape & payload don't agree
	ErrInvalidRegion = errors.New("invalid region")

	// ErrDuplicateRegion implies a region ID that is already taken
	ErrDuplicateRegion = errors.New("region id already in use")

	// ErrNoPartition implies there are no cells for a region to work with
	ErrNoPartition = errors.New("no cell partition for layer")
)

// OutOfBoundsError is a POLYPOINT coordinate that is not inside any cell.
type OutOfBoundsError struct {
	Region string
	Index  int // position of the point in the region's coordinate list
	Point  r2.Point
}

// Error returns the error string.
func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("region %s: point %d (%v, %v) is not inside any cell", e.Region, e.Index, e.Point.X, e.Point.Y)
}

// Is reports whether the target is ErrOutOfBounds.
func (e *OutOfBoundsError) Is(err error) bool {
	return err == ErrOutOfBounds
}

// ReferenceError is an edge POLYPOINT coordinate with no node to attach to.
// Any pair using this point is skipped.
type ReferenceError struct {
	Region string
	Index  int
	Point  r2.Point
}

// Error returns the error string.
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("region %s: point %d (%v, %v) does not resolve to a node", e.Region, e.Index, e.Point.X, e.Point.Y)
}

// Is reports whether the target is ErrReference.
func (e *ReferenceError) Is(err error) bool {
	return err == ErrReference
}

// joinWarnings rolls up per point errors into one error (nil if there are none).
func joinWarnings(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return multierror.Append(nil, errs...).ErrorOrNil()
}
