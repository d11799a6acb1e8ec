// Package credits prices extraction requests in gemas.
package credits

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/trendhack/dashboard/app/models"
)

// ErrInsufficientCredits is matched by every InsufficientCreditsError.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrCostOutOfRange is returned for costs that overflow or are negative.
var ErrCostOutOfRange = errors.New("cost out of range")

// InsufficientCreditsError carries the amounts shown to the user.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// EstimateCost prices a request. Page tools charge per profile and result,
// url tools charge a flat price once a url is present.
func EstimateCost(kind models.ToolType, profiles, expectedResults, price int, url string) (int, error) {
	profiles = clamp(profiles)
	expectedResults = clamp(expectedResults)
	price = clamp(price)

	switch kind {
	case models.ToolTypeURL:
		if strings.TrimSpace(url) == "" {
			return 0, nil
		}
		return price, nil
	default:
		cost, ok := multiply(profiles, expectedResults)
		if ok {
			cost, ok = multiply(cost, price)
		}
		if !ok {
			return 0, fmt.Errorf("%w: %d profiles x %d results x %d", ErrCostOutOfRange, profiles, expectedResults, price)
		}
		return cost, nil
	}
}

// Check returns an *InsufficientCreditsError when cost exceeds available.
// A negative cost is never accepted.
func Check(cost, available int) error {
	if cost < 0 {
		return ErrCostOutOfRange
	}
	if cost > available {
		return &InsufficientCreditsError{Required: cost, Available: available}
	}
	return nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// multiply reports false when a*b does not fit an int. Both are non-negative.
func multiply(a, b int) (int, bool) {
	if a != 0 && b > math.MaxInt/a {
		return 0, false
	}
	return a * b, true
}
