package plot

import (
	"fmt"
	"strings"

	"github.com/c360/plotstream/errors"
	"github.com/c360/plotstream/telemetry"
)

// extractScalar resolves the scalar a query selects from a telemetry value.
// Compound values need the query to name a component; scalar values ignore
// the query entirely.
func extractScalar(query string, v *telemetry.Value) (float64, error) {
	if v == nil || !v.Has() {
		return 0, errors.ErrInvalidValue
	}

	switch v.Type {
	case telemetry.TypeVector3:
		return extractVectorComponent(query, *v.Vector3)
	case telemetry.TypeQuaternion:
		return extractEulerAngle(query, *v.Quaternion)
	case telemetry.TypePose:
		return extractPoseComponent(query, *v.Pose)
	default:
		if s, ok := v.Scalar(); ok {
			return s, nil
		}
		return 0, fmt.Errorf("%w: no scalar for type %s", errors.ErrInvalidValue, v.Type)
	}
}

// extractVectorComponent selects a vector axis by the query's final
// character.
func extractVectorComponent(query string, vec telemetry.Vector3) (float64, error) {
	switch {
	case strings.HasSuffix(query, "x"):
		return vec.X, nil
	case strings.HasSuffix(query, "y"):
		return vec.Y, nil
	case strings.HasSuffix(query, "z"):
		return vec.Z, nil
	default:
		return 0, fmt.Errorf("%w: query %q selects no vector axis", errors.ErrNoSuchField, query)
	}
}

// extractEulerAngle converts the orientation to Euler angles and selects one
// by query token. Precedence is roll, then pitch, then yaw; the first token
// found wins, so a query naming several angles is still deterministic.
func extractEulerAngle(query string, q telemetry.Quaternion) (float64, error) {
	euler := q.Euler()
	switch {
	case strings.Contains(query, "roll"):
		return euler.X, nil
	case strings.Contains(query, "pitch"):
		return euler.Y, nil
	case strings.Contains(query, "yaw"):
		return euler.Z, nil
	default:
		return 0, fmt.Errorf("%w: query %q selects no euler angle", errors.ErrNoSuchField, query)
	}
}

// extractPoseComponent delegates to the position or orientation part named by
// the query.
func extractPoseComponent(query string, p telemetry.Pose) (float64, error) {
	switch {
	case strings.Contains(query, "position"):
		return extractVectorComponent(query, p.Position)
	case strings.Contains(query, "orientation"):
		return extractEulerAngle(query, p.Orientation)
	default:
		return 0, fmt.Errorf("%w: query %q selects no pose part", errors.ErrNoSuchField, query)
	}
}
