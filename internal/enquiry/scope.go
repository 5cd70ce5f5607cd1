// AngelaMos | 2026
// scope.go

package enquiry

import (
	"errors"
	"strings"

	"github.com/wattgrid/marketplace-api/internal/subscription"
)

var (
	ErrCityRequired = errors.New("city parameter is required")
	ErrStateNotSet  = errors.New("state not set in profile")
)

type ScopeKind string

const (
	ScopeCity     ScopeKind = "city"
	ScopeState    ScopeKind = "state"
	ScopeNational ScopeKind = "national"
)

// Scope is the geographic predicate applied to the open enquiries a seller
// may list.
type Scope struct {
	Kind  ScopeKind
	Value string
}

// ResolveScope maps a seller's plan onto a listing scope. planType is empty
// for sellers without an active subscription. city is the client supplied
// query parameter and is mandatory for every plan; profileState is only
// consulted for the state plan.
func ResolveScope(planType, city string, profileState *string) (Scope, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Scope{}, ErrCityRequired
	}

	switch planType {
	case subscription.PlanState:
		if profileState == nil || strings.TrimSpace(*profileState) == "" {
			return Scope{}, ErrStateNotSet
		}
		return Scope{Kind: ScopeState, Value: strings.TrimSpace(*profileState)}, nil
	case subscription.PlanNational:
		return Scope{Kind: ScopeNational}, nil
	default:
		return Scope{Kind: ScopeCity, Value: city}, nil
	}
}
