// Package measure holds the dimension sanity checks and the ellipsoid
// volume estimation used on every ingestion path.
package measure

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vesica/internal/apperr"
)

// Validate checks that all three bladder dimensions are strictly positive.
// Zero and negative values fail; no upper bound is enforced, pending
// clinical calibration. It must run before EstimateVolume on every path.
func Validate(lengthCM, widthCM, depthCM float64) error {
	// Required catches the zero value, which threshold rules skip.
	err := validation.Errors{
		"length_cm": validation.Validate(lengthCM, validation.Required, validation.Min(0.0).Exclusive()),
		"width_cm":  validation.Validate(widthCM, validation.Required, validation.Min(0.0).Exclusive()),
		"depth_cm":  validation.Validate(depthCM, validation.Required, validation.Min(0.0).Exclusive()),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidMeasurement, err)
	}
	return nil
}
