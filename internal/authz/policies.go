package authz

import (
	"fmt"
	"strings"
)

// defaultPolicies grants each Cedar action to principals whose scope mapping
// yielded that action. Because policies match on principal.grantedActions
// rather than scope names, custom scope-to-action mappings work without
// custom policy files.
var defaultPolicies = buildDefaultPolicies()

func buildDefaultPolicies() string {
	var b strings.Builder
	for _, action := range []string{ActionRead, ActionWrite, ActionAdmin} {
		fmt.Fprintf(&b, `permit(
  principal,
  action == %[1]s::Action::"%[2]s",
  resource
) when {
  principal.grantedActions.contains("%[2]s")
};

`, cedarNamespace, action)
	}
	return b.String()
}
